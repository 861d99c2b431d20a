package http

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware returns nil when CORS is disabled. When enabled, the share origin is
// always allowed so a share-link page served from it can fetch the ciphertext.
func corsMiddleware(enabled bool, allowOrigins, shareOrigin string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := splitOrigins(allowOrigins)
	if shareOrigin = strings.TrimRight(strings.TrimSpace(shareOrigin), "/"); shareOrigin != "" &&
		!slices.Contains(origins, shareOrigin) {
		origins = append(origins, shareOrigin)
	}
	if len(origins) == 0 {
		logger.Warn("cors enabled but no origins configured")
		return nil
	}

	logger.Info("cors enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{
			"Content-Disposition",
			"Content-Length",
			"X-Request-Id",
		},
		MaxAge: time.Hour,
	})
}

func splitOrigins(s string) []string {
	var origins []string
	for part := range strings.SplitSeq(s, ",") {
		if origin := strings.TrimRight(strings.TrimSpace(part), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
