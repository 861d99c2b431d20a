package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/filevault/internal/database"
)

// SQLiteOperationRepository persists journal operations.
type SQLiteOperationRepository struct {
	db *sql.DB
}

// NewSQLiteOperationRepository creates a new SQLiteOperationRepository.
func NewSQLiteOperationRepository(db *sql.DB) *SQLiteOperationRepository {
	return &SQLiteOperationRepository{db: db}
}

// Create inserts a new operation.
func (r *SQLiteOperationRepository) Create(ctx context.Context, op *Operation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO pending_operations (id, kind, file_id, status, attempts, last_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, op.ID, op.Kind, op.FileID, op.Status,
		op.Attempts, op.LastError, op.CreatedAt, op.UpdatedAt)

	return err
}

// GetPending returns up to limit pending operations, oldest first.
func (r *SQLiteOperationRepository) GetPending(ctx context.Context, limit int) ([]*Operation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, kind, file_id, status, attempts, last_error, created_at, updated_at
			  FROM pending_operations
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, OperationStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var ops []*Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.Kind, &op.FileID, &op.Status,
			&op.Attempts, &op.LastError, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, err
		}
		ops = append(ops, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ops, nil
}

// Update stores the status, attempt count and last error of op.
func (r *SQLiteOperationRepository) Update(ctx context.Context, op *Operation) error {
	querier := database.GetTx(ctx, r.db)

	op.UpdatedAt = time.Now().UTC()
	query := `UPDATE pending_operations
			  SET status = ?, attempts = ?, last_error = ?, updated_at = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, op.Status, op.Attempts, op.LastError, op.UpdatedAt, op.ID)

	return err
}

// CountByStatus returns how many operations are in status.
func (r *SQLiteOperationRepository) CountByStatus(ctx context.Context, status OperationStatus) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations WHERE status = ?`, status).
		Scan(&count)
	return count, err
}
