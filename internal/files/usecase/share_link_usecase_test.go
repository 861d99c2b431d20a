package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	filesService "github.com/allisson/filevault/internal/files/service"
	filesUsecaseMocks "github.com/allisson/filevault/internal/files/usecase/mocks"
)

func newShareLinkFixture(t *testing.T) (
	*shareLinkUseCase,
	*filesUsecaseMocks.MockFileRepository,
	*filesUsecaseMocks.MockShareLinkRepository,
	filesService.BlobStore,
) {
	t.Helper()
	store, err := filesService.NewBlobStore(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fileRepo := &filesUsecaseMocks.MockFileRepository{}
	linkRepo := &filesUsecaseMocks.MockShareLinkRepository{}
	uc := NewShareLinkUseCase(fileRepo, linkRepo, store).(*shareLinkUseCase)
	return uc, fileRepo, linkRepo, store
}

func TestShareLinkUseCase_Create(t *testing.T) {
	ctx := context.Background()
	owner := principal(authDomain.RoleRegular)
	file := &filesDomain.File{ID: uuid.Must(uuid.NewV7()), OwnerID: owner.UserID}

	t.Run("Success_WithExpiry", func(t *testing.T) {
		uc, fileRepo, linkRepo, _ := newShareLinkFixture(t)
		fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return fixed }
		expiresIn := time.Hour

		fileRepo.On("Get", ctx, file.ID).Return(file, nil).Once()
		linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.ShareLink")).Return(nil).Once()

		link, err := uc.Create(ctx, owner, file.ID, &expiresIn)

		require.NoError(t, err)
		assert.Equal(t, file.ID, link.FileID)
		assert.Equal(t, owner.UserID, link.CreatedBy)
		require.NotNil(t, link.ExpiresAt)
		assert.Equal(t, fixed.Add(time.Hour), *link.ExpiresAt)
	})

	t.Run("Success_NoExpiry", func(t *testing.T) {
		uc, fileRepo, linkRepo, _ := newShareLinkFixture(t)
		fileRepo.On("Get", ctx, file.ID).Return(file, nil).Once()
		linkRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		link, err := uc.Create(ctx, owner, file.ID, nil)

		require.NoError(t, err)
		assert.Nil(t, link.ExpiresAt)
	})

	t.Run("Error_NotOwner", func(t *testing.T) {
		uc, fileRepo, linkRepo, _ := newShareLinkFixture(t)
		fileRepo.On("Get", ctx, file.ID).Return(file, nil).Once()

		_, err := uc.Create(ctx, principal(authDomain.RoleRegular), file.ID, nil)

		assert.ErrorIs(t, err, filesDomain.ErrFileNotFound)
		linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_NonPositiveExpiry", func(t *testing.T) {
		uc, _, _, _ := newShareLinkFixture(t)
		zero := time.Duration(0)

		_, err := uc.Create(ctx, owner, file.ID, &zero)

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestShareLinkUseCase_Resolve(t *testing.T) {
	ctx := context.Background()
	file := &filesDomain.File{ID: uuid.Must(uuid.NewV7()), BlobKey: "blob-1"}

	t.Run("Success_OpensCiphertext", func(t *testing.T) {
		uc, fileRepo, linkRepo, store := newShareLinkFixture(t)
		require.NoError(t, store.Put(ctx, "blob-1", []byte("ciphertext")))
		future := time.Now().Add(time.Hour)
		link := &filesDomain.ShareLink{ID: uuid.Must(uuid.NewV7()), FileID: file.ID, ExpiresAt: &future}

		linkRepo.On("Get", ctx, link.ID).Return(link, nil).Once()
		fileRepo.On("Get", ctx, file.ID).Return(file, nil).Once()

		shared, reader, err := uc.OpenCiphertext(ctx, link.ID)

		require.NoError(t, err)
		defer func() { _ = reader.Close() }()
		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, []byte("ciphertext"), data)
		assert.Equal(t, file, shared.File)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		uc, fileRepo, linkRepo, _ := newShareLinkFixture(t)
		past := time.Now().Add(-time.Minute)
		link := &filesDomain.ShareLink{ID: uuid.Must(uuid.NewV7()), FileID: file.ID, ExpiresAt: &past}
		linkRepo.On("Get", ctx, link.ID).Return(link, nil).Once()

		_, err := uc.Resolve(ctx, link.ID)

		assert.ErrorIs(t, err, filesDomain.ErrShareLinkExpired)
		assert.ErrorIs(t, err, apperrors.ErrGone)
		fileRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("Error_Unknown", func(t *testing.T) {
		uc, _, linkRepo, _ := newShareLinkFixture(t)
		linkID := uuid.Must(uuid.NewV7())
		linkRepo.On("Get", ctx, linkID).Return(nil, filesDomain.ErrShareLinkNotFound).Once()

		_, err := uc.Resolve(ctx, linkID)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error_FileDeleted", func(t *testing.T) {
		uc, fileRepo, linkRepo, _ := newShareLinkFixture(t)
		link := &filesDomain.ShareLink{ID: uuid.Must(uuid.NewV7()), FileID: file.ID}
		linkRepo.On("Get", ctx, link.ID).Return(link, nil).Once()
		fileRepo.On("Get", ctx, file.ID).Return(nil, filesDomain.ErrFileNotFound).Once()

		_, err := uc.Resolve(ctx, link.ID)

		assert.ErrorIs(t, err, filesDomain.ErrShareLinkNotFound)
	})
}

func TestShareLinkUseCase_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	uc, _, linkRepo, _ := newShareLinkFixture(t)
	before := time.Now().UTC()
	linkRepo.On("DeleteExpired", ctx, before).Return(int64(2), nil).Once()

	count, err := uc.PurgeExpired(ctx, before)

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
