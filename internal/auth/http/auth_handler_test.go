package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/auth/http/dto"
	httpMocks "github.com/allisson/filevault/internal/auth/http/mocks"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
)

func setupAuthTestHandler(t *testing.T) (*AuthHandler, *httpMocks.MockAuthUseCase, *httpMocks.MockUserUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockAuthUseCase := &httpMocks.MockAuthUseCase{}
	mockUserUseCase := &httpMocks.MockUserUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuthHandler(mockAuthUseCase, mockUserUseCase, logger), mockAuthUseCase, mockUserUseCase
}

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func testDomainUser(role authDomain.Role) *authDomain.User {
	return &authDomain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "alice@example.com",
		Username:  "alice",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuthHandler_SignupHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		user := testDomainUser(authDomain.RoleGuest)

		mockAuth.On("Signup", mock.Anything, &authUseCase.SignupInput{
			Email:    "alice@example.com",
			Username: "alice",
			Password: "Str0ng!Pass",
		}).Return(user, nil).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/signup", dto.SignupRequest{
			Email:    "alice@example.com",
			Username: "alice",
			Password: "Str0ng!Pass",
		})
		handler.SignupHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, user.ID.String(), response.ID)
		assert.Equal(t, "guest", response.Role)
		assert.NotContains(t, w.Body.String(), "password")
		mockAuth.AssertExpectations(t)
	})

	t.Run("Error_Conflict", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Signup", mock.Anything, mock.Anything).Return(nil, authDomain.ErrUserAlreadyExists).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/signup", dto.SignupRequest{
			Email: "alice@example.com", Username: "alice", Password: "Str0ng!Pass",
		})
		handler.SignupHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_MissingFields", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@b.co"})
		handler.SignupHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockAuth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _, _ := setupAuthTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString("{"))
		c.Request.Header.Set("Content-Type", "application/json")
		handler.SignupHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_LoginHandler(t *testing.T) {
	t.Run("Success_SetupRequired", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Login", mock.Anything, "alice@example.com", "Str0ng!Pass").Return(&authDomain.LoginResult{
			RequiresSetup:     true,
			VerificationToken: "verification-token",
			Enrollment: &authDomain.Enrollment{
				Secret:          "JBSWY3DPEHPK3PXP",
				ProvisioningURI: "otpauth://totp/app:alice@example.com?secret=JBSWY3DPEHPK3PXP",
				QRCode:          "data:image/png;base64,AAAA",
			},
		}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/login", dto.LoginRequest{
			Email: "alice@example.com", Password: "Str0ng!Pass",
		})
		handler.LoginHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["requires_2fa_setup"])
		assert.Equal(t, "verification-token", response["verification_token"])
		assert.Equal(t, "JBSWY3DPEHPK3PXP", response["secret"])
		assert.Equal(t, "data:image/png;base64,AAAA", response["qr_code"])
		assert.NotContains(t, response, "requires_2fa")
	})

	t.Run("Success_StepUpRequired", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Login", mock.Anything, "alice@example.com", "Str0ng!Pass").Return(&authDomain.LoginResult{
			RequiresTwoFactor: true,
			VerificationToken: "verification-token",
		}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/login", dto.LoginRequest{
			Email: "alice@example.com", Password: "Str0ng!Pass",
		})
		handler.LoginHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"requires_2fa":true,"verification_token":"verification-token"}`, w.Body.String())
	})

	t.Run("Error_InvalidCredentials", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, authDomain.ErrInvalidCredentials).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/login", dto.LoginRequest{
			Email: "alice@example.com", Password: "wrong",
		})
		handler.LoginHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_Locked", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, authDomain.ErrAccountLocked).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/login", dto.LoginRequest{
			Email: "alice@example.com", Password: "wrong",
		})
		handler.LoginHandler(c)

		assert.Equal(t, http.StatusLocked, w.Code)
	})
}

func TestAuthHandler_SecondFactor(t *testing.T) {
	verification := &VerificationContext{
		Token:     "verification-token",
		Principal: &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), Email: "alice@example.com"},
	}
	session := &authDomain.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		User:         testDomainUser(authDomain.RoleRegular),
	}

	t.Run("VerifySetup_Success", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("CompleteSetup", mock.Anything, "verification-token", "123456").Return(session, nil).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/verify-2fa", dto.VerifySecondFactorRequest{Code: "123456"})
		c.Request = c.Request.WithContext(WithVerification(c.Request.Context(), verification))
		handler.VerifySecondFactorHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "access-token", response.Access)
		assert.Equal(t, "refresh-token", response.Refresh)
		assert.Equal(t, "regular", response.User.Role)
	})

	t.Run("VerifySetup_MalformedCode", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/api/auth/verify-2fa", dto.VerifySecondFactorRequest{Code: "12ab"})
		c.Request = c.Request.WithContext(WithVerification(c.Request.Context(), verification))
		handler.VerifySecondFactorHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockAuth.AssertNotCalled(t, "CompleteSetup", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("VerifySetup_NoVerificationContext", func(t *testing.T) {
		handler, _, _ := setupAuthTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/api/auth/verify-2fa", dto.VerifySecondFactorRequest{Code: "123456"})
		handler.VerifySecondFactorHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("StepUp_WrongCode", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("CompleteStepUp", mock.Anything, "verification-token", "alice@example.com", "000000").
			Return(nil, authDomain.ErrInvalidCredentials).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/login-verify-2fa", dto.LoginVerifySecondFactorRequest{
			Email: "alice@example.com", Code: "000000",
		})
		c.Request = c.Request.WithContext(WithVerification(c.Request.Context(), verification))
		handler.LoginVerifySecondFactorHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	t.Run("Refresh_Success", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Refresh", mock.Anything, "refresh-token").Return("new-access", nil).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/token/refresh", dto.RefreshTokenRequest{Refresh: "refresh-token"})
		handler.RefreshTokenHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"access":"new-access"}`, w.Body.String())
	})

	t.Run("Refresh_Revoked", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Refresh", mock.Anything, "refresh-token").Return("", authDomain.ErrInvalidToken).Once()

		c, w := createTestContext(http.MethodPost, "/api/auth/token/refresh", dto.RefreshTokenRequest{Refresh: "refresh-token"})
		handler.RefreshTokenHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Logout_NoContent", func(t *testing.T) {
		handler, mockAuth, _ := setupAuthTestHandler(t)
		mockAuth.On("Logout", mock.Anything, "refresh-token").Return(nil).Once()

		router := gin.New()
		router.POST("/api/auth/logout", handler.LogoutHandler)
		body, _ := json.Marshal(dto.RefreshTokenRequest{Refresh: "refresh-token"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockAuth.AssertExpectations(t)
	})
}

func TestAuthHandler_MeHandler(t *testing.T) {
	handler, _, mockUsers := setupAuthTestHandler(t)
	user := testDomainUser(authDomain.RoleRegular)
	mockUsers.On("Get", mock.Anything, user.ID).Return(user, nil).Once()

	c, w := createTestContext(http.MethodGet, "/api/auth/me", nil)
	c.Request = c.Request.WithContext(WithPrincipal(context.Background(), user.Principal()))
	handler.MeHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "alice", response.Username)
}
