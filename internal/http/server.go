// Package http provides the file API HTTP server, its router and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authHTTP "github.com/allisson/filevault/internal/auth/http"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
	"github.com/allisson/filevault/internal/config"
	filesHTTP "github.com/allisson/filevault/internal/files/http"
	"github.com/allisson/filevault/internal/metrics"
)

// Server represents the file API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is attached by SetupRouter.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every /api route.
//
// Auth endpoints that accept credentials are rate limited per client IP. The limiter's
// cleanup goroutine stops when ctx is cancelled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	authUseCase authUseCase.AuthUseCase,
	authHandler *authHTTP.AuthHandler,
	userHandler *authHTTP.UserHandler,
	fileHandler *filesHTTP.FileHandler,
	shareLinkHandler *filesHTTP.ShareLinkHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if mw := corsMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.ShareOrigin, s.logger); mw != nil {
		router.Use(mw)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	access := authHTTP.AccessTokenMiddleware(authUseCase, s.logger)
	verification := authHTTP.VerificationTokenMiddleware(authUseCase, s.logger)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		credentials := auth.Group("")
		if cfg.RateLimitEnabled {
			credentials.Use(authHTTP.AuthRateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
		}
		credentials.POST("/signup", authHandler.SignupHandler)
		credentials.POST("/login", authHandler.LoginHandler)
		credentials.POST("/verify-2fa", verification, authHandler.VerifySecondFactorHandler)
		credentials.POST("/login-verify-2fa", verification, authHandler.LoginVerifySecondFactorHandler)
		credentials.POST("/token/refresh", authHandler.RefreshTokenHandler)

		auth.POST("/logout", authHandler.LogoutHandler)
		auth.GET("/me", access, authHandler.MeHandler)

		users := auth.Group("/users", access, authHTTP.RequireOperation(authDomain.OperationManageUsers, s.logger))
		{
			users.GET("", userHandler.ListHandler)
			users.POST("/:id/role", userHandler.ChangeRoleHandler)
			users.DELETE("/:id", userHandler.DeleteHandler)
		}
	}

	files := api.Group("/files", access)
	{
		files.POST("/upload",
			authHTTP.RequireOperation(authDomain.OperationUpload, s.logger),
			fileHandler.UploadHandler)
		files.GET("", fileHandler.ListHandler)
		files.GET("/shared-with-me", fileHandler.SharedWithMeHandler)
		files.GET("/:id/download", fileHandler.DownloadHandler)
		files.DELETE("/:id",
			authHTTP.RequireOperation(authDomain.OperationDelete, s.logger),
			fileHandler.DeleteHandler)
		files.POST("/:id/share",
			authHTTP.RequireOperation(authDomain.OperationShare, s.logger),
			fileHandler.ShareHandler)
		files.POST("/:id/create-share-link",
			authHTTP.RequireOperation(authDomain.OperationShare, s.logger),
			shareLinkHandler.CreateHandler)
		files.GET("/shared/:shareId",
			authHTTP.RequireOperation(authDomain.OperationReadShared, s.logger),
			shareLinkHandler.SharedHandler)
	}

	s.router = router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
