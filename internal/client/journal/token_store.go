package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/filevault/internal/client/session"
	"github.com/allisson/filevault/internal/database"
)

// SQLiteTokenStore is the durable session.TokenStore. It holds a single row.
type SQLiteTokenStore struct {
	db *sql.DB
}

// NewSQLiteTokenStore creates a new SQLiteTokenStore.
func NewSQLiteTokenStore(db *sql.DB) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db}
}

// Load returns the stored tokens or session.ErrNoTokens.
func (s *SQLiteTokenStore) Load(ctx context.Context) (*session.Tokens, error) {
	querier := database.GetTx(ctx, s.db)

	var tokens session.Tokens
	err := querier.QueryRowContext(ctx, `SELECT access_token, refresh_token FROM session_tokens WHERE id = 1`).
		Scan(&tokens.AccessToken, &tokens.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNoTokens
	}
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Save upserts the tokens.
func (s *SQLiteTokenStore) Save(ctx context.Context, tokens session.Tokens) error {
	querier := database.GetTx(ctx, s.db)

	query := `INSERT INTO session_tokens (id, access_token, refresh_token, updated_at)
			  VALUES (1, ?, ?, ?)
			  ON CONFLICT (id) DO UPDATE SET
			      access_token = excluded.access_token,
			      refresh_token = excluded.refresh_token,
			      updated_at = excluded.updated_at`

	_, err := querier.ExecContext(ctx, query, tokens.AccessToken, tokens.RefreshToken, time.Now().UTC())
	return err
}

// Clear deletes the stored tokens.
func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	querier := database.GetTx(ctx, s.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM session_tokens`)
	return err
}
