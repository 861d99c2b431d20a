package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// stubAuthUseCase answers Login and Refresh with fixed values; other methods are unused.
type stubAuthUseCase struct {
	AuthUseCase
	loginErr error
}

func (s *stubAuthUseCase) Login(context.Context, string, string) (*authDomain.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authDomain.LoginResult{RequiresTwoFactor: true}, nil
}

func (s *stubAuthUseCase) Refresh(context.Context, string) (string, error) {
	return "access", nil
}

func TestNewAuthUseCaseWithMetrics(t *testing.T) {
	decorator := NewAuthUseCaseWithMetrics(&stubAuthUseCase{}, &mockBusinessMetrics{})

	assert.NotNil(t, decorator)
	assert.Implements(t, (*AuthUseCase)(nil), decorator)
}

func TestAuthMetricsDecorator_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		m := &mockBusinessMetrics{}
		m.On("RecordOperation", ctx, "auth", "login", "success").Once()
		m.On("RecordDuration", ctx, "auth", "login", mock.AnythingOfType("time.Duration"), "success").Once()

		result, err := NewAuthUseCaseWithMetrics(&stubAuthUseCase{}, m).Login(ctx, "a@b.co", "pw")

		assert.NoError(t, err)
		assert.True(t, result.RequiresTwoFactor)
		m.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		m := &mockBusinessMetrics{}
		m.On("RecordOperation", ctx, "auth", "login", "error").Once()
		m.On("RecordDuration", ctx, "auth", "login", mock.AnythingOfType("time.Duration"), "error").Once()

		stub := &stubAuthUseCase{loginErr: errors.New("boom")}
		_, err := NewAuthUseCaseWithMetrics(stub, m).Login(ctx, "a@b.co", "pw")

		assert.Error(t, err)
		m.AssertExpectations(t)
	})
}

func TestAuthMetricsDecorator_Refresh(t *testing.T) {
	ctx := context.Background()
	m := &mockBusinessMetrics{}
	m.On("RecordOperation", ctx, "auth", "token_refresh", "success").Once()
	m.On("RecordDuration", ctx, "auth", "token_refresh", mock.AnythingOfType("time.Duration"), "success").Once()

	token, err := NewAuthUseCaseWithMetrics(&stubAuthUseCase{}, m).Refresh(ctx, "refresh")

	assert.NoError(t, err)
	assert.Equal(t, "access", token)
	m.AssertExpectations(t)
}
