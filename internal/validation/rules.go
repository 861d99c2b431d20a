// Package validation holds the jellydator/validation rules shared by request DTOs and
// use cases.
package validation

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/filevault/internal/errors"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,30}$`)
)

// maxFileNameBytes matches the files.name column.
const maxFileNameBytes = 255

// WrapValidationError turns a validation failure into ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordStrength requires a minimum length and, optionally, one rune from each
// enabled character class.
type PasswordStrength struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

type charClass struct {
	required bool
	code     string
	name     string
	match    func(rune) bool
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Validate implements validation.Rule.
func (p PasswordStrength) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	if utf8.RuneCountInString(s) < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			fmt.Sprintf("password must be at least %d characters", p.MinLength),
		)
	}

	classes := []charClass{
		{p.RequireUpper, "uppercase", "uppercase letter", unicode.IsUpper},
		{p.RequireLower, "lowercase", "lowercase letter", unicode.IsLower},
		{p.RequireNumber, "number", "number", unicode.IsNumber},
		{p.RequireSpecial, "special", "special character", isSpecial},
	}
	for _, c := range classes {
		if c.required && strings.IndexFunc(s, c.match) < 0 {
			return validation.NewError(
				"validation_password_"+c.code,
				"password must contain at least one "+c.name,
			)
		}
	}
	return nil
}

// Email checks the address shape only.
var Email = validation.NewStringRuleWithError(
	emailRegex.MatchString,
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NotBlank rejects strings that are empty after trimming.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Username allows 3 to 30 letters, digits, dots, underscores and hyphens.
var Username = validation.NewStringRuleWithError(
	usernameRegex.MatchString,
	validation.NewError(
		"validation_username_format",
		"must be 3-30 characters of letters, digits, dot, underscore or hyphen",
	),
)

// Base64 requires standard padded base64.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_base64_format", "must be valid base64"),
)

// FileName accepts a bare file name: valid UTF-8, at most 255 bytes, no path
// separators, no control characters and neither "." nor "..".
var FileName = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) > maxFileNameBytes || !utf8.ValidString(s) || s == "." || s == ".." {
			return false
		}
		return !strings.ContainsFunc(s, func(r rune) bool {
			return r == '/' || r == '\\' || unicode.IsControl(r)
		})
	},
	validation.NewError("validation_file_name", "must be a file name without path separators or control characters"),
)
