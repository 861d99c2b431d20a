// Package repository implements data persistence for files, user shares and share links
// on PostgreSQL and MySQL.
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

const fileColumns = `id, owner_id, name, mime_type, size, ciphertext_size, blob_key, iv, created_at, updated_at`

// sharedFileColumns selects fileColumns from the files table aliased as f.
const sharedFileColumns = `f.id, f.owner_id, f.name, f.mime_type, f.size, f.ciphertext_size, f.blob_key, f.iv,
			  f.created_at, f.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLFileRepository implements File persistence for PostgreSQL.
type PostgreSQLFileRepository struct {
	db *sql.DB
}

// Create inserts a new File.
func (p *PostgreSQLFileRepository) Create(ctx context.Context, file *filesDomain.File) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO files (` + fileColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		file.ID,
		file.OwnerID,
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
func (p *PostgreSQLFileRepository) Get(ctx context.Context, fileID uuid.UUID) (*filesDomain.File, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	file, err := scanPostgreSQLFile(querier.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, filesDomain.ErrFileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get file")
	}
	return file, nil
}

// ListByOwner returns the files owned by a user, newest first.
func (p *PostgreSQLFileRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1
			  ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return p.list(ctx, query, ownerID, limit, offset)
}

// ListSharedWith returns the files shared with a user, newest first.
func (p *PostgreSQLFileRepository) ListSharedWith(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	query := `SELECT ` + sharedFileColumns + `
			  FROM files f INNER JOIN file_shares s ON s.file_id = f.id
			  WHERE s.user_id = $1
			  ORDER BY f.created_at DESC LIMIT $2 OFFSET $3`
	return p.list(ctx, query, userID, limit, offset)
}

func (p *PostgreSQLFileRepository) list(ctx context.Context, query string, args ...any) ([]*filesDomain.File, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list files")
	}
	defer func() {
		_ = rows.Close()
	}()

	files := make([]*filesDomain.File, 0)
	for rows.Next() {
		file, err := scanPostgreSQLFile(rows)
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
func (p *PostgreSQLFileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, fileID)
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

func scanPostgreSQLFile(row rowScanner) (*filesDomain.File, error) {
	var file filesDomain.File
	err := row.Scan(
		&file.ID,
		&file.OwnerID,
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
	return &file, nil
}

// NewPostgreSQLFileRepository creates a new PostgreSQL File repository.
func NewPostgreSQLFileRepository(db *sql.DB) *PostgreSQLFileRepository {
	return &PostgreSQLFileRepository{db: db}
}
