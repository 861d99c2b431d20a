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

// MySQLShareRepository implements user share persistence for MySQL.
type MySQLShareRepository struct {
	db *sql.DB
}

// Create inserts a share. Sharing the same file with the same user twice is a no-op.
func (m *MySQLShareRepository) Create(ctx context.Context, share *filesDomain.Share) error {
	querier := database.GetTx(ctx, m.db)

	fileID, userID, err := marshalPair(share.FileID, share.UserID)
	if err != nil {
		return err
	}

	query := `INSERT IGNORE INTO file_shares (file_id, user_id, created_at) VALUES (?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, fileID, userID, share.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create file share")
	}
	return nil
}

// Exists reports whether the file is shared with the user.
func (m *MySQLShareRepository) Exists(ctx context.Context, fileID, userID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	rawFileID, rawUserID, err := marshalPair(fileID, userID)
	if err != nil {
		return false, err
	}

	query := `SELECT EXISTS (SELECT 1 FROM file_shares WHERE file_id = ? AND user_id = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, rawFileID, rawUserID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check file share")
	}
	return exists, nil
}

// DeleteByFile removes every share of a file.
func (m *MySQLShareRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := fileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM file_shares WHERE file_id = ?`, id); err != nil {
		return apperrors.Wrap(err, "failed to delete file shares")
	}
	return nil
}

func marshalPair(fileID, userID uuid.UUID) ([]byte, []byte, error) {
	rawFileID, err := fileID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal file id")
	}
	rawUserID, err := userID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	return rawFileID, rawUserID, nil
}

// NewMySQLShareRepository creates a new MySQL share repository.
func NewMySQLShareRepository(db *sql.DB) *MySQLShareRepository {
	return &MySQLShareRepository{db: db}
}

// MySQLShareLinkRepository implements ShareLink persistence for MySQL.
type MySQLShareLinkRepository struct {
	db *sql.DB
}

// Create inserts a new ShareLink.
func (m *MySQLShareLinkRepository) Create(ctx context.Context, link *filesDomain.ShareLink) error {
	querier := database.GetTx(ctx, m.db)

	id, err := link.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal share link id")
	}
	fileID, createdBy, err := marshalPair(link.FileID, link.CreatedBy)
	if err != nil {
		return err
	}

	query := `INSERT INTO share_links (id, file_id, created_by, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, id, fileID, createdBy, link.ExpiresAt, link.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create share link")
	}
	return nil
}

// Get retrieves a ShareLink by ID.
func (m *MySQLShareLinkRepository) Get(ctx context.Context, linkID uuid.UUID) (*filesDomain.ShareLink, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := linkID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal share link id")
	}

	query := `SELECT id, file_id, created_by, expires_at, created_at FROM share_links WHERE id = ?`

	var link filesDomain.ShareLink
	var id, fileID, createdBy []byte
	var expiresAt sql.NullTime

	err = querier.QueryRowContext(ctx, query, rawID).Scan(&id, &fileID, &createdBy, &expiresAt, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, filesDomain.ErrShareLinkNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get share link")
	}

	if err := link.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal share link id")
	}
	if err := link.FileID.UnmarshalBinary(fileID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal file id")
	}
	if err := link.CreatedBy.UnmarshalBinary(createdBy); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal creator id")
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	return &link, nil
}

// DeleteByFile removes every link of a file.
func (m *MySQLShareLinkRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := fileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM share_links WHERE file_id = ?`, id); err != nil {
		return apperrors.Wrap(err, "failed to delete share links")
	}
	return nil
}

// DeleteExpired removes links that expired before the given time and returns the count.
func (m *MySQLShareLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at < ?`

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

// NewMySQLShareLinkRepository creates a new MySQL ShareLink repository.
func NewMySQLShareLinkRepository(db *sql.DB) *MySQLShareLinkRepository {
	return &MySQLShareLinkRepository{db: db}
}
