package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/allisson/filevault/internal/client/api"
	"github.com/allisson/filevault/internal/client/session"
)

// maxCodeAttempts bounds how many TOTP codes one login prompts for.
const maxCodeAttempts = 3

// LoginSession drives the two-step login.
type LoginSession interface {
	Login(ctx context.Context, email, password string) (session.LoginOutcome, error)
	CompleteSecondFactor(ctx context.Context, code string) (*session.Authenticated, error)
}

// Registrar creates guest accounts.
type Registrar interface {
	Signup(ctx context.Context, email, username, password string) (*api.User, error)
}

// LogoutSession ends the stored session.
type LogoutSession interface {
	Logout(ctx context.Context) error
}

// CurrentUser returns the user of the restored session.
type CurrentUser interface {
	User() *api.User
}

// RunLogin signs in with a password and a TOTP code. A first login prints the TOTP
// secret to enroll before asking for the code.
func RunLogin(ctx context.Context, manager LoginSession, prompter Prompter, writer io.Writer, email string) error {
	var err error
	if email == "" {
		if email, err = prompter.Prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := prompter.PromptSecret("Password: ")
	if err != nil {
		return err
	}

	outcome, err := manager.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	switch o := outcome.(type) {
	case *session.Authenticated:
		return printSignedIn(writer, o.User)
	case *session.SetupRequired:
		_, _ = fmt.Fprintf(writer,
			"Two-factor setup required. Add this secret to your authenticator app:\n  Secret: %s\n  URI: %s\n",
			o.Enrollment.Secret, o.Enrollment.ProvisioningURI)
	}

	for attempt := 1; ; attempt++ {
		code, err := prompter.Prompt("Authentication code: ")
		if err != nil {
			return err
		}

		auth, err := manager.CompleteSecondFactor(ctx, code)
		if err == nil {
			return printSignedIn(writer, auth.User)
		}
		if !errors.Is(err, session.ErrAuthenticationFailed) || attempt == maxCodeAttempts {
			return fmt.Errorf("login failed: %w", err)
		}
		_, _ = fmt.Fprintln(writer, "Invalid code, try again.")
	}
}

// RunSignup registers a guest account. The password is prompted for twice.
func RunSignup(ctx context.Context, auth Registrar, prompter Prompter, writer io.Writer, email, username string) error {
	password, err := prompter.PromptSecret("Password: ")
	if err != nil {
		return err
	}
	confirm, err := prompter.PromptSecret("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := auth.Signup(ctx, email, username, password)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	_, err = fmt.Fprintf(writer, "Account created for %s (%s)\nLog in to set up two-factor authentication.\n",
		user.Email, user.Role)
	return err
}

// RunLogout revokes the refresh token and clears the stored session.
func RunLogout(ctx context.Context, manager LogoutSession, writer io.Writer) error {
	if err := manager.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	_, err := fmt.Fprintln(writer, "Signed out")
	return err
}

// RunWhoami prints the signed-in user.
func RunWhoami(manager CurrentUser, writer io.Writer, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	user := manager.User()
	if user == nil {
		return session.ErrReauthenticationRequired
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":       user.ID.String(),
			"email":    user.Email,
			"username": user.Username,
			"role":     string(user.Role),
		})
	}

	_, err := fmt.Fprintf(writer, "%s <%s> (%s)\n", user.Username, user.Email, user.Role)
	return err
}

func printSignedIn(writer io.Writer, user *api.User) error {
	_, err := fmt.Fprintf(writer, "Signed in as %s (%s)\n", user.Email, user.Role)
	return err
}
