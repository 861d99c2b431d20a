package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authMocks "github.com/allisson/filevault/internal/auth/http/mocks"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
	apperrors "github.com/allisson/filevault/internal/errors"
)

func TestRunCreateAdmin(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	admin := &authDomain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Email:    "root@example.com",
		Username: "root",
		Role:     authDomain.RoleAdmin,
	}
	input := &authUseCase.SignupInput{Email: "root@example.com", Username: "root", Password: "Str0ng!Passw0rd"}

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &authMocks.MockUserUseCase{}
		mockUseCase.On("CreateAdmin", ctx, input).Return(admin, nil)

		var out bytes.Buffer
		err := RunCreateAdmin(ctx, mockUseCase, logger, &mockPrompter{}, &out,
			"root@example.com", "root", "Str0ng!Passw0rd", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Admin created")
		require.Contains(t, out.String(), admin.ID.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &authMocks.MockUserUseCase{}
		mockUseCase.On("CreateAdmin", ctx, input).Return(admin, nil)

		var out bytes.Buffer
		err := RunCreateAdmin(ctx, mockUseCase, logger, &mockPrompter{}, &out,
			"root@example.com", "root", "Str0ng!Passw0rd", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"role": "admin"`)
		require.Contains(t, out.String(), `"email": "root@example.com"`)
	})

	t.Run("prompts-for-password", func(t *testing.T) {
		prompter := &mockPrompter{}
		prompter.On("PromptSecret", "Password: ").Return("Str0ng!Passw0rd", nil).Once()
		mockUseCase := &authMocks.MockUserUseCase{}
		mockUseCase.On("CreateAdmin", ctx, input).Return(admin, nil)

		err := RunCreateAdmin(ctx, mockUseCase, logger, prompter, &bytes.Buffer{},
			"root@example.com", "root", "", "text")

		require.NoError(t, err)
		prompter.AssertExpectations(t)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &authMocks.MockUserUseCase{}
		mockUseCase.On("CreateAdmin", ctx, mock.Anything).Return(nil, authDomain.ErrUserAlreadyExists)

		err := RunCreateAdmin(ctx, mockUseCase, logger, &mockPrompter{}, &bytes.Buffer{},
			"root@example.com", "root", "Str0ng!Passw0rd", "text")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("invalid-format", func(t *testing.T) {
		mockUseCase := &authMocks.MockUserUseCase{}

		err := RunCreateAdmin(ctx, mockUseCase, logger, &mockPrompter{}, &bytes.Buffer{},
			"root@example.com", "root", "Str0ng!Passw0rd", "xml")

		require.Error(t, err)
		mockUseCase.AssertNotCalled(t, "CreateAdmin", mock.Anything, mock.Anything)
	})
}
