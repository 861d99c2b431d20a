package testutil

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// faults injects error statuses into fake services and counts calls per route.
type faults struct {
	mu      sync.Mutex
	pending map[string][]int
	calls   map[string]int
}

func newFaults() *faults {
	return &faults{
		pending: make(map[string][]int),
		calls:   make(map[string]int),
	}
}

// Fail makes the next times calls to route answer with status.
func (f *faults) Fail(route string, status, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for range times {
		f.pending[route] = append(f.pending[route], status)
	}
}

// Calls returns how many times route was hit.
func (f *faults) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// middleware counts the call and aborts with an injected status when one is queued.
func (f *faults) middleware(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		f.calls[route]++
		var status int
		if queued := f.pending[route]; len(queued) > 0 {
			status = queued[0]
			f.pending[route] = queued[1:]
		}
		f.mu.Unlock()

		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": "injected", "message": http.StatusText(status)})
			return
		}
		c.Next()
	}
}
