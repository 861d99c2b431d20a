package metrics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meteredRouter(t *testing.T) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("filevault")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "filevault"))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/api/files/:id/download", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", bytes.Repeat([]byte{0x1}, 2048))
	})
	router.DELETE("/api/files/:id", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	})
	return router, provider
}

func serve(router *gin.Engine, method, path string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	t.Run("RecordsRoutePattern", func(t *testing.T) {
		router, provider := meteredRouter(t)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/files/0192/download"))
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/files/0193/download"))
		assert.Equal(t, http.StatusForbidden, serve(router, http.MethodDelete, "/api/files/0192"))

		body := scrape(t, provider)
		assert.Contains(t, body, "filevault_http_requests_total")
		assert.Contains(t, body, `path="/api/files/:id/download"`)
		assert.Contains(t, body, `status_code="403"`)
		assert.NotContains(t, body, "/api/files/0192")
		assert.Contains(t, body, "filevault_http_response_size_bytes")
	})

	t.Run("SkipsProbes", func(t *testing.T) {
		router, provider := meteredRouter(t)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health"))

		assert.NotContains(t, scrape(t, provider), `path="/health"`)
	})

	t.Run("UnmatchedRoute", func(t *testing.T) {
		router, provider := meteredRouter(t)

		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nope"))

		assert.Contains(t, scrape(t, provider), `path="unknown"`)
	})
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/files/:id/download", sanitizePath("/api/files/:id/download"))
	assert.Equal(t, "/api/files/shared/:shareId", sanitizePath("/api/files/shared/:shareId"))
	assert.Equal(t, "unknown", sanitizePath(""))
}
