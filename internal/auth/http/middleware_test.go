package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	httpMocks "github.com/allisson/filevault/internal/auth/http/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAccessTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(mockAuth *httpMocks.MockAuthUseCase, captured **authDomain.Principal) *gin.Engine {
		router := gin.New()
		router.Use(AccessTokenMiddleware(mockAuth, testLogger()))
		router.GET("/protected", func(c *gin.Context) {
			principal, ok := GetPrincipal(c.Request.Context())
			if ok {
				*captured = principal
			}
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("Success", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		user := testDomainUser(authDomain.RoleAdmin)
		mockAuth.On("Authenticate", mock.Anything, "access-token").Return(user, nil).Once()

		var captured *authDomain.Principal
		router := newRouter(mockAuth, &captured)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured)
		assert.Equal(t, user.ID, captured.UserID)
		assert.Equal(t, authDomain.RoleAdmin, captured.Role)
	})

	t.Run("CaseInsensitiveScheme", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		mockAuth.On("Authenticate", mock.Anything, "access-token").
			Return(testDomainUser(authDomain.RoleRegular), nil).Once()

		var captured *authDomain.Principal
		router := newRouter(mockAuth, &captured)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "bearer access-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		var captured *authDomain.Principal
		router := newRouter(mockAuth, &captured)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, captured)
		mockAuth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		var captured *authDomain.Principal
		router := newRouter(mockAuth, &captured)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("RejectedToken", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		mockAuth.On("Authenticate", mock.Anything, "verification-token").
			Return(nil, authDomain.ErrInvalidToken).Once()

		var captured *authDomain.Principal
		router := newRouter(mockAuth, &captured)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer verification-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, captured)
	})
}

func TestVerificationTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	principal := &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), Email: "alice@example.com"}

	t.Run("Success", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		mockAuth.On("AuthenticateVerification", mock.Anything, "verification-token").Return(principal, nil).Once()

		var captured *VerificationContext
		router := gin.New()
		router.Use(VerificationTokenMiddleware(mockAuth, testLogger()))
		router.POST("/verify", func(c *gin.Context) {
			captured, _ = GetVerification(c.Request.Context())
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		req.Header.Set("Authorization", "Bearer verification-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "verification-token", captured.Token)
		assert.Equal(t, principal.UserID, captured.Principal.UserID)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		mockAuth := &httpMocks.MockAuthUseCase{}
		mockAuth.On("AuthenticateVerification", mock.Anything, "access-token").
			Return(nil, authDomain.ErrInvalidToken).Once()

		router := gin.New()
		router.Use(VerificationTokenMiddleware(mockAuth, testLogger()))
		router.POST("/verify", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireOperation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     authDomain.Role
		op       authDomain.Operation
		expected int
	}{
		{"guest reads shared", authDomain.RoleGuest, authDomain.OperationReadShared, http.StatusOK},
		{"guest cannot upload", authDomain.RoleGuest, authDomain.OperationUpload, http.StatusForbidden},
		{"regular uploads", authDomain.RoleRegular, authDomain.OperationUpload, http.StatusOK},
		{"regular cannot manage users", authDomain.RoleRegular, authDomain.OperationManageUsers, http.StatusForbidden},
		{"admin manages users", authDomain.RoleAdmin, authDomain.OperationManageUsers, http.StatusOK},
		{"unknown role denied", authDomain.Role("owner"), authDomain.OperationReadShared, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				ctx := WithPrincipal(c.Request.Context(), &authDomain.Principal{UserID: uuid.Must(uuid.NewV7()), Role: tt.role})
				c.Request = c.Request.WithContext(ctx)
				c.Next()
			})
			router.Use(RequireOperation(tt.op, testLogger()))
			router.GET("/op", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/op", nil))

			assert.Equal(t, tt.expected, w.Code)
		})
	}

	t.Run("no principal", func(t *testing.T) {
		router := gin.New()
		router.Use(RequireOperation(authDomain.OperationReadShared, testLogger()))
		router.GET("/op", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/op", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
