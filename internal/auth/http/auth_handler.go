package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/filevault/internal/auth/http/dto"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
	apperrors "github.com/allisson/filevault/internal/errors"
	"github.com/allisson/filevault/internal/httputil"
	customValidation "github.com/allisson/filevault/internal/validation"
)

// AuthHandler handles signup, the two-step login and session endpoints.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	userUseCase authUseCase.UserUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(
	authUseCase authUseCase.AuthUseCase,
	userUseCase authUseCase.UserUseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// SignupHandler creates a guest account.
// POST /api/auth/signup - No authentication required.
// Returns 201 Created with the user.
func (h *AuthHandler) SignupHandler(c *gin.Context) {
	var req dto.SignupRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.authUseCase.Signup(c.Request.Context(), &authUseCase.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapUserToResponse(user))
}

// LoginHandler checks the password and starts the mandatory second factor.
// POST /api/auth/login - No authentication required.
// Returns 200 OK with either the enrollment material or a step-up challenge.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.authUseCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginResultToResponse(result))
}

// VerifySecondFactorHandler confirms the first TOTP enrollment.
// POST /api/auth/verify-2fa - Requires a verification token.
// Returns 200 OK with the session.
func (h *AuthHandler) VerifySecondFactorHandler(c *gin.Context) {
	verification, ok := GetVerification(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.VerifySecondFactorRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.CompleteSetup(c.Request.Context(), verification.Token, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse(session))
}

// LoginVerifySecondFactorHandler validates a TOTP code for an enrolled user.
// POST /api/auth/login-verify-2fa - Requires a verification token.
// Returns 200 OK with the session.
func (h *AuthHandler) LoginVerifySecondFactorHandler(c *gin.Context) {
	verification, ok := GetVerification(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.LoginVerifySecondFactorRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.CompleteStepUp(c.Request.Context(), verification.Token, req.Email, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse(session))
}

// RefreshTokenHandler mints a new access token.
// POST /api/auth/token/refresh - No authentication required.
func (h *AuthHandler) RefreshTokenHandler(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.bind(c, &req) {
		return
	}

	access, err := h.authUseCase.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshTokenResponse{Access: access})
}

// LogoutHandler revokes a refresh token.
// POST /api/auth/logout - No authentication required. Returns 204 No Content.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.authUseCase.Logout(c.Request.Context(), req.Refresh); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// MeHandler returns the current user.
// GET /api/auth/me - Requires an access token.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.userUseCase.Get(c.Request.Context(), principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

type validatable interface {
	Validate() error
}

// bind parses the JSON body into req and validates it. On failure it writes the error
// response and returns false.
func (h *AuthHandler) bind(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return false
	}
	return true
}
