package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/database"
	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// MySQLFileRepository implements File persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLFileRepository struct {
	db *sql.DB
}

// Create inserts a new File.
func (m *MySQLFileRepository) Create(ctx context.Context, file *filesDomain.File) error {
	querier := database.GetTx(ctx, m.db)

	id, err := file.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}
	ownerID, err := file.OwnerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `INSERT INTO files (` + fileColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ownerID,
		file.Name,
		file.MIMEType,
		file.Size,
		file.CiphertextSize,
		file.BlobKey,
		file.IV,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create file")
	}
	return nil
}

// Get retrieves a File by ID.
func (m *MySQLFileRepository) Get(ctx context.Context, fileID uuid.UUID) (*filesDomain.File, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := fileID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal file id")
	}

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`

	file, err := scanMySQLFile(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, filesDomain.ErrFileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get file")
	}
	return file, nil
}

// ListByOwner returns the files owned by a user, newest first.
func (m *MySQLFileRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	id, err := ownerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = ?
			  ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return m.list(ctx, query, id, limit, offset)
}

// ListSharedWith returns the files shared with a user, newest first.
func (m *MySQLFileRepository) ListSharedWith(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + sharedFileColumns + `
			  FROM files f INNER JOIN file_shares s ON s.file_id = f.id
			  WHERE s.user_id = ?
			  ORDER BY f.created_at DESC LIMIT ? OFFSET ?`
	return m.list(ctx, query, id, limit, offset)
}

func (m *MySQLFileRepository) list(ctx context.Context, query string, args ...any) ([]*filesDomain.File, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list files")
	}
	defer func() {
		_ = rows.Close()
	}()

	files := make([]*filesDomain.File, 0)
	for rows.Next() {
		file, err := scanMySQLFile(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan file")
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate files")
	}
	return files, nil
}

// Delete removes a File row. Missing files return ErrFileNotFound.
func (m *MySQLFileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := fileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal file id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete file")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return filesDomain.ErrFileNotFound
	}
	return nil
}

func scanMySQLFile(row rowScanner) (*filesDomain.File, error) {
	var file filesDomain.File
	var id, ownerID []byte

	err := row.Scan(
		&id,
		&ownerID,
		&file.Name,
		&file.MIMEType,
		&file.Size,
		&file.CiphertextSize,
		&file.BlobKey,
		&file.IV,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := file.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal file id")
	}
	if err := file.OwnerID.UnmarshalBinary(ownerID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
	}
	return &file, nil
}

// NewMySQLFileRepository creates a new MySQL File repository.
func NewMySQLFileRepository(db *sql.DB) *MySQLFileRepository {
	return &MySQLFileRepository{db: db}
}
