package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/filevault/internal/errors"
)

type fakeTokenSource struct {
	mu        sync.Mutex
	token     string
	next      string
	refreshes int
	rejected  []string
	err       error
}

func (f *fakeTokenSource) EnsureFreshAccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, nil
}

func (f *fakeTokenSource) ForceRefresh(ctx context.Context, rejected string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.rejected = append(f.rejected, rejected)
	if f.err != nil {
		return "", f.err
	}
	f.token = f.next
	return f.token, nil
}

func newTestClient(tokens TokenSource) *Client {
	return NewClient(Config{Timeout: 5 * time.Second, MaxRetries: 2, RetryWait: time.Millisecond}, tokens, nil)
}

func TestClient_DoJSON(t *testing.T) {
	t.Run("attaches the access token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		}))
		defer server.Close()

		client := newTestClient(&fakeTokenSource{token: "access-1"})

		var out struct {
			ID string `json:"id"`
		}
		err := client.DoJSON(context.Background(), &Request{Method: http.MethodGet, URL: server.URL, Authenticated: true}, &out)
		require.NoError(t, err)
		assert.Equal(t, "abc", out.ID)
	})

	t.Run("explicit bearer skips the token source", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer verification", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(nil)
		err := client.DoJSON(context.Background(), &Request{Method: http.MethodPost, URL: server.URL, BearerToken: "verification"}, nil)
		assert.NoError(t, err)
	})

	t.Run("unauthenticated requests carry no token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(&fakeTokenSource{token: "access-1"})
		err := client.DoJSON(context.Background(), &Request{Method: http.MethodPost, URL: server.URL}, nil)
		assert.NoError(t, err)
	})
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"bad request", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"unprocessable", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, apperrors.ErrForbidden},
		{"not found", http.StatusNotFound, apperrors.ErrNotFound},
		{"conflict", http.StatusConflict, apperrors.ErrConflict},
		{"gone", http.StatusGone, apperrors.ErrGone},
		{"locked", http.StatusLocked, apperrors.ErrLocked},
		{"too many requests", http.StatusTooManyRequests, apperrors.ErrTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"some_code","message":"some message"}`))
			}))
			defer server.Close()

			client := NewClient(Config{Timeout: time.Second}, nil, nil)
			err := client.DoJSON(context.Background(), &Request{Method: http.MethodPost, URL: server.URL}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "some_code", statusErr.Code)
			assert.Equal(t, "some message", statusErr.Message)
		})
	}
}

func TestClient_ReplayAfterUnauthorized(t *testing.T) {
	t.Run("refreshes once and replays", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		tokens := &fakeTokenSource{token: "access-1", next: "access-2"}
		client := newTestClient(tokens)

		req, err := NewJSONRequest(http.MethodPost, server.URL, map[string]string{"email": "a@example.com"})
		require.NoError(t, err)
		req.Authenticated = true

		require.NoError(t, client.DoJSON(context.Background(), req, nil))
		assert.Equal(t, int32(2), hits.Load())
		assert.Equal(t, 1, tokens.refreshes)
		assert.Equal(t, []string{"access-1"}, tokens.rejected)
	})

	t.Run("second rejection is returned", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		tokens := &fakeTokenSource{token: "access-1", next: "access-2"}
		client := newTestClient(tokens)

		err := client.DoJSON(context.Background(), &Request{Method: http.MethodGet, URL: server.URL, Authenticated: true}, nil)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.Equal(t, int32(2), hits.Load())
		assert.Equal(t, 1, tokens.refreshes)
	})

	t.Run("refresh failure is returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		refreshErr := apperrors.New("reauthenticate")
		client := newTestClient(&fakeTokenSource{token: "access-1", err: refreshErr})

		err := client.DoJSON(context.Background(), &Request{Method: http.MethodGet, URL: server.URL, Authenticated: true}, nil)
		assert.ErrorIs(t, err, refreshErr)
	})
}

func TestClient_Retries(t *testing.T) {
	t.Run("idempotent requests are retried", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(nil)
		err := client.DoJSON(context.Background(), &Request{Method: http.MethodDelete, URL: server.URL}, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("non-idempotent requests are sent once", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestClient(nil)
		err := client.DoJSON(context.Background(), &Request{Method: http.MethodPost, URL: server.URL}, nil)
		require.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
		assert.Nil(t, statusErr.Unwrap())
	})
}

func TestClient_DoBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	client := newTestClient(nil)

	body, err := client.DoBytes(context.Background(), &Request{Method: http.MethodGet, URL: server.URL}, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), body)

	_, err = client.DoBytes(context.Background(), &Request{Method: http.MethodGet, URL: server.URL}, 5)
	assert.Error(t, err)
}

func TestClient_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(nil)
	err := client.DoJSON(ctx, &Request{Method: http.MethodGet, URL: server.URL}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMultipartRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "report.pdf", r.FormValue("name"))
		assert.Equal(t, "16", r.FormValue("size"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck
		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, int64(3), header.Size)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	req, err := NewMultipartRequest(http.MethodPost, server.URL,
		[]FormField{{Name: "name", Value: "report.pdf"}, {Name: "size", Value: "16"}},
		FormFile{Field: "file", FileName: "report.pdf", Content: []byte("abc")},
	)
	require.NoError(t, err)

	client := newTestClient(nil)
	assert.NoError(t, client.DoJSON(context.Background(), req, nil))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "http://localhost/api/files", JoinURL("http://localhost/api/", "/files"))
	assert.Equal(t, "http://localhost/api/files", JoinURL("http://localhost/api", "files"))
}
