// Package mocks provides mock implementations of the auth use cases for testing HTTP handlers.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
)

// MockAuthUseCase is a mock implementation of AuthUseCase for testing.
type MockAuthUseCase struct {
	mock.Mock
}

// Signup mocks the Signup method of AuthUseCase.
func (m *MockAuthUseCase) Signup(ctx context.Context, input *authUseCase.SignupInput) (*authDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

// Login mocks the Login method of AuthUseCase.
func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*authDomain.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginResult), args.Error(1)
}

// CompleteSetup mocks the CompleteSetup method of AuthUseCase.
func (m *MockAuthUseCase) CompleteSetup(
	ctx context.Context,
	verificationToken, code string,
) (*authDomain.Session, error) {
	args := m.Called(ctx, verificationToken, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

// CompleteStepUp mocks the CompleteStepUp method of AuthUseCase.
func (m *MockAuthUseCase) CompleteStepUp(
	ctx context.Context,
	verificationToken, email, code string,
) (*authDomain.Session, error) {
	args := m.Called(ctx, verificationToken, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

// Refresh mocks the Refresh method of AuthUseCase.
func (m *MockAuthUseCase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

// Logout mocks the Logout method of AuthUseCase.
func (m *MockAuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// Authenticate mocks the Authenticate method of AuthUseCase.
func (m *MockAuthUseCase) Authenticate(ctx context.Context, accessToken string) (*authDomain.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

// AuthenticateVerification mocks the AuthenticateVerification method of AuthUseCase.
func (m *MockAuthUseCase) AuthenticateVerification(
	ctx context.Context,
	verificationToken string,
) (*authDomain.Principal, error) {
	args := m.Called(ctx, verificationToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Principal), args.Error(1)
}

// PurgeExpiredRefreshTokens mocks the PurgeExpiredRefreshTokens method of AuthUseCase.
func (m *MockAuthUseCase) PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserUseCase is a mock implementation of UserUseCase for testing.
type MockUserUseCase struct {
	mock.Mock
}

// Get mocks the Get method of UserUseCase.
func (m *MockUserUseCase) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

// List mocks the List method of UserUseCase.
func (m *MockUserUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.User), args.Error(1)
}

// ChangeRole mocks the ChangeRole method of UserUseCase.
func (m *MockUserUseCase) ChangeRole(
	ctx context.Context,
	userID uuid.UUID,
	role authDomain.Role,
) (*authDomain.User, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

// Delete mocks the Delete method of UserUseCase.
func (m *MockUserUseCase) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// CreateAdmin mocks the CreateAdmin method of UserUseCase.
func (m *MockUserUseCase) CreateAdmin(ctx context.Context, input *authUseCase.SignupInput) (*authDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}
