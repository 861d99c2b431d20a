package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/allisson/filevault/internal/httputil"
)

// Limiters idle for longer than limiterTTL are dropped by the sweeper.
const (
	limiterTTL    = time.Hour
	sweepInterval = 5 * time.Minute
)

// authRateLimiterStore keeps one token bucket per client IP.
type authRateLimiterStore struct {
	limiters sync.Map // client IP -> *authRateLimiterEntry
	rps      float64
	burst    int
}

type authRateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

func (e *authRateLimiterEntry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// AuthRateLimitMiddleware throttles the credential endpoints (signup, login, second
// factor and refresh) per client IP, slowing down password and TOTP guessing. Rejected
// requests get a 429 with Retry-After. The sweeper goroutine stops when ctx is done.
func AuthRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &authRateLimiterStore{rps: rps, burst: burst}
	go store.cleanupStale(ctx, sweepInterval)

	return func(c *gin.Context) {
		now := time.Now()
		clientIP := c.ClientIP()
		limiter := store.getLimiter(clientIP)

		if limiter.AllowN(now, 1) {
			c.Next()
			return
		}

		retryAfter := retryAfterSeconds(limiter, now)
		logger.Debug("auth rate limit exceeded",
			slog.String("client_ip", clientIP),
			slog.String("path", c.FullPath()),
			slog.Int("retry_after", retryAfter),
		)

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
			Error:   "rate_limit_exceeded",
			Message: "Too many authentication attempts, please try again later",
		})
	}
}

// retryAfterSeconds is the wait until the next token, rounded up to whole seconds.
func retryAfterSeconds(limiter *rate.Limiter, now time.Time) int {
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return max(1, int(math.Ceil(delay.Seconds())))
}

func (s *authRateLimiterStore) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	if val, ok := s.limiters.Load(ip); ok {
		entry := val.(*authRateLimiterEntry)
		entry.touch(now)
		return entry.limiter
	}

	entry := &authRateLimiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
	entry.touch(now)
	actual, _ := s.limiters.LoadOrStore(ip, entry)
	return actual.(*authRateLimiterEntry).limiter
}

// cleanupStale drops limiters idle for longer than limiterTTL every interval.
func (s *authRateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := now.Add(-limiterTTL).UnixNano()
			s.limiters.Range(func(key, value any) bool {
				if value.(*authRateLimiterEntry).lastSeen.Load() < cutoff {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
