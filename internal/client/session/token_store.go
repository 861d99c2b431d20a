package session

import (
	"context"
	"sync"

	apperrors "github.com/allisson/filevault/internal/errors"
)

// ErrNoTokens is returned by a TokenStore that holds no session.
var ErrNoTokens = apperrors.Wrap(apperrors.ErrNotFound, "no stored session")

// Tokens is the durable part of a session. The verification token is never part of it.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// TokenStore persists session tokens across process restarts.
type TokenStore interface {
	// Load returns the stored tokens or ErrNoTokens.
	Load(ctx context.Context) (*Tokens, error)
	// Save replaces the stored tokens.
	Save(ctx context.Context, tokens Tokens) error
	// Clear removes the stored tokens. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens *Tokens
}

// NewMemoryTokenStore creates an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil, ErrNoTokens
	}
	tokens := *s.tokens
	return &tokens, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &tokens
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}
