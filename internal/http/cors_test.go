package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRouter(t *testing.T, allowOrigins, shareOrigin string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mw := corsMiddleware(true, allowOrigins, shareOrigin, slog.Default())
	require.NotNil(t, mw)

	router := gin.New()
	router.Use(mw)
	router.GET("/api/files/shared/:shareId", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, corsMiddleware(false, "https://app.filevault.test", "", slog.Default()))
	})

	t.Run("EnabledWithoutOrigins", func(t *testing.T) {
		assert.Nil(t, corsMiddleware(true, " , ", "", slog.Default()))
	})

	t.Run("ShareOriginAllowedByDefault", func(t *testing.T) {
		router := corsRouter(t, "", "https://share.filevault.test/")

		req := httptest.NewRequest(http.MethodGet, "/api/files/shared/abc", nil)
		req.Header.Set("Origin", "https://share.filevault.test")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://share.filevault.test", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("PreflightFromConfiguredOrigin", func(t *testing.T) {
		router := corsRouter(t, "https://app.filevault.test", "https://share.filevault.test")

		req := httptest.NewRequest(http.MethodOptions, "/api/files/shared/abc", nil)
		req.Header.Set("Origin", "https://app.filevault.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.filevault.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})

	t.Run("UnknownOriginRejected", func(t *testing.T) {
		router := corsRouter(t, "https://app.filevault.test", "")

		req := httptest.NewRequest(http.MethodGet, "/api/files/shared/abc", nil)
		req.Header.Set("Origin", "https://evil.test")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"https://a.filevault.test", "https://b.filevault.test"},
		splitOrigins(" https://a.filevault.test/ ,,https://b.filevault.test"),
	)
	assert.Nil(t, splitOrigins(""))
}
