package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

func TestMySQLFileRepository_Create(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLFileRepository(db)
	file := testFile()
	id, _ := file.ID.MarshalBinary()
	ownerID, _ := file.OwnerID.MarshalBinary()

	mock.ExpectExec(`INSERT INTO files`).
		WithArgs(
			id, ownerID, file.Name, file.MIMEType, file.Size, file.CiphertextSize,
			file.BlobKey, file.IV, file.CreatedAt, file.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(ctx, file))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLFileRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLFileRepository(db)
		file := testFile()
		id, _ := file.ID.MarshalBinary()
		ownerID, _ := file.OwnerID.MarshalBinary()

		mock.ExpectQuery(`SELECT (.+) FROM files WHERE id = \?`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(fileRowColumns).AddRow(
				id, ownerID, file.Name, file.MIMEType, file.Size,
				file.CiphertextSize, file.BlobKey, file.IV, file.CreatedAt, file.UpdatedAt,
			))

		got, err := repo.Get(ctx, file.ID)

		require.NoError(t, err)
		assert.Equal(t, file, got)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLFileRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM files`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, filesDomain.ErrFileNotFound)
	})
}

func TestMySQLFileRepository_ListSharedWith(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLFileRepository(db)
	file := testFile()
	id, _ := file.ID.MarshalBinary()
	ownerID, _ := file.OwnerID.MarshalBinary()
	userID := uuid.Must(uuid.NewV7())
	rawUserID, _ := userID.MarshalBinary()

	mock.ExpectQuery(`INNER JOIN file_shares s ON s.file_id = f.id\s+WHERE s.user_id = \?`).
		WithArgs(rawUserID, 20, 0).
		WillReturnRows(sqlmock.NewRows(fileRowColumns).AddRow(
			id, ownerID, file.Name, file.MIMEType, file.Size,
			file.CiphertextSize, file.BlobKey, file.IV, file.CreatedAt, file.UpdatedAt,
		))

	files, err := repo.ListSharedWith(ctx, userID, 0, 20)

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, file.OwnerID, files[0].OwnerID)
}

func TestMySQLFileRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLFileRepository(db)

	mock.ExpectExec(`DELETE FROM files WHERE id = \?`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, filesDomain.ErrFileNotFound)
}
