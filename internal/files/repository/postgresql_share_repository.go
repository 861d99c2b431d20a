package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/database"
	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// PostgreSQLShareRepository implements user share persistence for PostgreSQL.
type PostgreSQLShareRepository struct {
	db *sql.DB
}

// Create inserts a share. Sharing the same file with the same user twice is a no-op.
func (p *PostgreSQLShareRepository) Create(ctx context.Context, share *filesDomain.Share) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO file_shares (file_id, user_id, created_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (file_id, user_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, share.FileID, share.UserID, share.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create file share")
	}
	return nil
}

// Exists reports whether the file is shared with the user.
func (p *PostgreSQLShareRepository) Exists(ctx context.Context, fileID, userID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (SELECT 1 FROM file_shares WHERE file_id = $1 AND user_id = $2)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, fileID, userID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check file share")
	}
	return exists, nil
}

// DeleteByFile removes every share of a file.
func (p *PostgreSQLShareRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM file_shares WHERE file_id = $1`, fileID); err != nil {
		return apperrors.Wrap(err, "failed to delete file shares")
	}
	return nil
}

// NewPostgreSQLShareRepository creates a new PostgreSQL share repository.
func NewPostgreSQLShareRepository(db *sql.DB) *PostgreSQLShareRepository {
	return &PostgreSQLShareRepository{db: db}
}

// PostgreSQLShareLinkRepository implements ShareLink persistence for PostgreSQL.
type PostgreSQLShareLinkRepository struct {
	db *sql.DB
}

// Create inserts a new ShareLink.
func (p *PostgreSQLShareLinkRepository) Create(ctx context.Context, link *filesDomain.ShareLink) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO share_links (id, file_id, created_by, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(ctx, query, link.ID, link.FileID, link.CreatedBy, link.ExpiresAt, link.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create share link")
	}
	return nil
}

// Get retrieves a ShareLink by ID.
func (p *PostgreSQLShareLinkRepository) Get(ctx context.Context, linkID uuid.UUID) (*filesDomain.ShareLink, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, file_id, created_by, expires_at, created_at FROM share_links WHERE id = $1`

	var link filesDomain.ShareLink
	var expiresAt sql.NullTime

	err := querier.QueryRowContext(ctx, query, linkID).Scan(
		&link.ID,
		&link.FileID,
		&link.CreatedBy,
		&expiresAt,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, filesDomain.ErrShareLinkNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get share link")
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	return &link, nil
}

// DeleteByFile removes every link of a file.
func (p *PostgreSQLShareLinkRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM share_links WHERE file_id = $1`, fileID); err != nil {
		return apperrors.Wrap(err, "failed to delete share links")
	}
	return nil
}

// DeleteExpired removes links that expired before the given time and returns the count.
func (p *PostgreSQLShareLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired share links")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// NewPostgreSQLShareLinkRepository creates a new PostgreSQL ShareLink repository.
func NewPostgreSQLShareLinkRepository(db *sql.DB) *PostgreSQLShareLinkRepository {
	return &PostgreSQLShareLinkRepository{db: db}
}
