package removal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/journal"
	apperrors "github.com/allisson/filevault/internal/errors"
)

type MockFilesAPI struct {
	mock.Mock
}

func (m *MockFilesAPI) Delete(ctx context.Context, fileID uuid.UUID) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

type MockKeyDeleter struct {
	mock.Mock
}

func (m *MockKeyDeleter) Delete(ctx context.Context, fileID uuid.UUID) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Create(ctx context.Context, op *journal.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

type roleAuthorizer authDomain.Role

func (r roleAuthorizer) Authorize(op authDomain.Operation) error {
	if r == "" {
		return apperrors.ErrUnauthorized
	}
	if !authDomain.IsAllowed(authDomain.Role(r), op) {
		return authDomain.ErrOperationNotAllowed
	}
	return nil
}

func setupRemover(role authDomain.Role) (*Remover, *MockFilesAPI, *MockKeyDeleter, *MockJournal) {
	files := &MockFilesAPI{}
	keys := &MockKeyDeleter{}
	journalMock := &MockJournal{}
	return NewRemover(files, keys, journalMock, roleAuthorizer(role), nil), files, keys, journalMock
}

func TestRemover_Delete(t *testing.T) {
	fileID := uuid.Must(uuid.NewV7())

	t.Run("removes ciphertext then key", func(t *testing.T) {
		ctx := context.Background()
		r, files, keys, journalMock := setupRemover(authDomain.RoleRegular)
		var order []string
		files.On("Delete", ctx, fileID).Run(func(mock.Arguments) { order = append(order, "ciphertext") }).Return(nil).Once()
		keys.On("Delete", mock.Anything, fileID).Run(func(mock.Arguments) { order = append(order, "key") }).Return(nil).Once()

		removal, err := r.Delete(ctx, fileID)
		require.NoError(t, err)

		assert.Equal(t, fileID, removal.FileID)
		assert.False(t, removal.KeyDeletionPending)
		assert.Equal(t, []string{"ciphertext", "key"}, order)
		journalMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("key failure is journalled", func(t *testing.T) {
		ctx := context.Background()
		r, files, keys, journalMock := setupRemover(authDomain.RoleRegular)
		files.On("Delete", ctx, fileID).Return(nil).Once()
		keys.On("Delete", mock.Anything, fileID).Return(errors.New("custodian unavailable")).Once()
		journalMock.On("Create", mock.Anything, mock.MatchedBy(func(op *journal.Operation) bool {
			return op.Kind == journal.KindDeleteKey &&
				op.FileID == fileID &&
				op.Status == journal.OperationStatusPending
		})).Return(nil).Once()

		removal, err := r.Delete(ctx, fileID)
		require.NoError(t, err)

		assert.True(t, removal.KeyDeletionPending)
		journalMock.AssertExpectations(t)
	})

	t.Run("key failure not journalled", func(t *testing.T) {
		ctx := context.Background()
		r, files, keys, journalMock := setupRemover(authDomain.RoleRegular)
		keyErr := errors.New("custodian unavailable")
		journalErr := errors.New("disk full")
		files.On("Delete", ctx, fileID).Return(nil).Once()
		keys.On("Delete", mock.Anything, fileID).Return(keyErr).Once()
		journalMock.On("Create", mock.Anything, mock.Anything).Return(journalErr).Once()

		removal, err := r.Delete(ctx, fileID)
		assert.Nil(t, removal)
		assert.ErrorIs(t, err, keyErr)
		assert.ErrorIs(t, err, journalErr)
	})

	t.Run("ciphertext failure leaves the key", func(t *testing.T) {
		ctx := context.Background()
		r, files, keys, _ := setupRemover(authDomain.RoleRegular)
		files.On("Delete", ctx, fileID).Return(apperrors.ErrForbidden).Once()

		_, err := r.Delete(ctx, fileID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		keys.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("key deleted after cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r, files, keys, _ := setupRemover(authDomain.RoleRegular)
		files.On("Delete", ctx, fileID).Run(func(mock.Arguments) { cancel() }).Return(nil).Once()
		keys.On("Delete", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), fileID).
			Return(nil).Once()

		removal, err := r.Delete(ctx, fileID)
		require.NoError(t, err)
		assert.False(t, removal.KeyDeletionPending)
		keys.AssertExpectations(t)
	})

	t.Run("guest refused", func(t *testing.T) {
		r, files, _, _ := setupRemover(authDomain.RoleGuest)

		_, err := r.Delete(context.Background(), fileID)
		assert.ErrorIs(t, err, authDomain.ErrOperationNotAllowed)
		files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
