package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
)

// AdminCreator bootstraps admin accounts.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, input *authUseCase.SignupInput) (*authDomain.User, error)
}

// RunCreateAdmin creates an admin account. The password is prompted for when empty.
// The account still enrolls TOTP on its first login.
func RunCreateAdmin(
	ctx context.Context,
	userUseCase AdminCreator,
	logger *slog.Logger,
	prompter Prompter,
	writer io.Writer,
	email, username, password, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if password == "" {
		var err error
		password, err = prompter.PromptSecret("Password: ")
		if err != nil {
			return err
		}
	}

	user, err := userUseCase.CreateAdmin(ctx, &authUseCase.SignupInput{
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("admin created", slog.String("user_id", user.ID.String()))

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":       user.ID.String(),
			"email":    user.Email,
			"username": user.Username,
			"role":     string(user.Role),
		})
	}

	_, err = fmt.Fprintf(writer, "Admin created\nID: %s\nEmail: %s\nUsername: %s\n", user.ID, user.Email, user.Username)
	return err
}
