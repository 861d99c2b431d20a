package retrieval

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/api"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	apperrors "github.com/allisson/filevault/internal/errors"
)

type MockFilesAPI struct {
	mock.Mock
}

func (m *MockFilesAPI) Metadata(ctx context.Context, fileID uuid.UUID) (*api.FileMetadata, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.FileMetadata), args.Error(1)
}

func (m *MockFilesAPI) Download(ctx context.Context, fileID uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFilesAPI) SharedDownload(ctx context.Context, shareID uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, shareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockKeyRetriever struct {
	mock.Mock
}

func (m *MockKeyRetriever) Retrieve(ctx context.Context, fileID uuid.UUID) (*cryptoDomain.Key, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Key), args.Error(1)
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

type encryptedFile struct {
	meta       *api.FileMetadata
	ciphertext []byte
	key        []byte
	plaintext  []byte
}

func encryptTestFile(t *testing.T) *encryptedFile {
	t.Helper()
	engine := cryptoService.NewFileEngine()
	plaintext := []byte("quarterly numbers")

	key, err := engine.GenerateKey()
	require.NoError(t, err)
	sealed, err := engine.Encrypt(plaintext, key)
	require.NoError(t, err)

	return &encryptedFile{
		meta: &api.FileMetadata{
			ID:       uuid.Must(uuid.NewV7()),
			Name:     "numbers.txt",
			MIMEType: "text/plain",
			Size:     int64(len(plaintext)),
			IV:       cryptoService.EncodeIV(sealed.IV),
		},
		ciphertext: sealed.Ciphertext,
		key:        append([]byte(nil), key.Bytes()...),
		plaintext:  plaintext,
	}
}

// freshKey returns a new Key each time: the orchestrator wipes the one it receives.
func (f *encryptedFile) freshKey() *cryptoDomain.Key {
	key, _ := cryptoDomain.NewKey(f.key)
	return key
}

func setupRetrieval(role authDomain.Role) (*Orchestrator, *MockFilesAPI, *MockKeyRetriever) {
	files := &MockFilesAPI{}
	keys := &MockKeyRetriever{}
	return NewOrchestrator(cryptoService.NewFileEngine(), files, keys, roleAuthorizer(role), nil), files, keys
}

func TestOrchestrator_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleRegular)
		file := encryptTestFile(t)
		files.On("Metadata", ctx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", ctx, file.meta.ID).Return(file.freshKey(), nil).Once()
		files.On("Download", ctx, file.meta.ID).Return(file.ciphertext, nil).Once()

		plaintext, err := o.Open(ctx, file.meta.ID)
		require.NoError(t, err)
		defer plaintext.Close() //nolint:errcheck

		assert.Equal(t, file.plaintext, plaintext.Bytes())
		assert.Equal(t, "numbers.txt", plaintext.Name)
		assert.Equal(t, "text/plain", plaintext.MIMEType)
		assert.Equal(t, file.meta.Size, plaintext.Size)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleRegular)
		file := encryptTestFile(t)
		file.ciphertext[0] ^= 0x01
		files.On("Metadata", ctx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", ctx, file.meta.ID).Return(file.freshKey(), nil).Once()
		files.On("Download", ctx, file.meta.ID).Return(file.ciphertext, nil).Once()

		plaintext, err := o.Open(ctx, file.meta.ID)
		assert.Nil(t, plaintext)
		assert.ErrorIs(t, err, ErrTamperedCiphertext)
		assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleRegular)
		file := encryptTestFile(t)
		other := encryptTestFile(t)
		files.On("Metadata", ctx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", ctx, file.meta.ID).Return(other.freshKey(), nil).Once()
		files.On("Download", ctx, file.meta.ID).Return(file.ciphertext, nil).Once()

		_, err := o.Open(ctx, file.meta.ID)
		assert.ErrorIs(t, err, ErrTamperedCiphertext)
	})

	t.Run("missing key stops before the ciphertext", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleRegular)
		file := encryptTestFile(t)
		files.On("Metadata", ctx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", ctx, file.meta.ID).Return(nil, apperrors.ErrNotFound).Once()

		_, err := o.Open(ctx, file.meta.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		files.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	})

	t.Run("unknown file stops before the key", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleGuest)
		fileID := uuid.Must(uuid.NewV7())
		files.On("Metadata", ctx, fileID).Return(nil, apperrors.ErrNotFound).Once()

		_, err := o.Open(ctx, fileID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		keys.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
	})

	t.Run("not authenticated", func(t *testing.T) {
		o, files, _ := setupRetrieval("")

		_, err := o.Open(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		files.AssertNotCalled(t, "Metadata", mock.Anything, mock.Anything)
	})

	t.Run("cancelled after the key", func(t *testing.T) {
		o, files, keys := setupRetrieval(authDomain.RoleRegular)
		file := encryptTestFile(t)
		cancelCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		files.On("Metadata", cancelCtx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", cancelCtx, file.meta.ID).
			Run(func(mock.Arguments) { cancel() }).
			Return(file.freshKey(), nil).Once()

		_, err := o.Open(cancelCtx, file.meta.ID)
		assert.ErrorIs(t, err, context.Canceled)
		files.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	})
}

func TestOrchestrator_With(t *testing.T) {
	ctx := context.Background()
	o, files, keys := setupRetrieval(authDomain.RoleRegular)
	file := encryptTestFile(t)
	expectOpen := func() {
		files.On("Metadata", ctx, file.meta.ID).Return(file.meta, nil).Once()
		keys.On("Retrieve", ctx, file.meta.ID).Return(file.freshKey(), nil).Once()
		files.On("Download", ctx, file.meta.ID).Return(append([]byte(nil), file.ciphertext...), nil).Once()
	}

	t.Run("closes after fn", func(t *testing.T) {
		expectOpen()
		var seen *Plaintext
		err := o.With(ctx, file.meta.ID, func(p *Plaintext) error {
			seen = p
			assert.Equal(t, file.plaintext, p.Bytes())
			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, seen.Bytes())
	})

	t.Run("closes when fn fails", func(t *testing.T) {
		expectOpen()
		fnErr := errors.New("disk full")
		var seen *Plaintext
		err := o.With(ctx, file.meta.ID, func(p *Plaintext) error {
			seen = p
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		_, err = seen.WriteTo(&bytes.Buffer{})
		assert.ErrorIs(t, err, ErrPlaintextClosed)
	})
}

func TestOrchestrator_OpenShared(t *testing.T) {
	ctx := context.Background()
	o, files, keys := setupRetrieval(authDomain.RoleGuest)
	file := encryptTestFile(t)
	shared := &api.SharedFileMetadata{
		ShareID:  uuid.Must(uuid.NewV7()),
		FileID:   file.meta.ID,
		Name:     file.meta.Name,
		MIMEType: file.meta.MIMEType,
		Size:     file.meta.Size,
		IV:       file.meta.IV,
	}
	keys.On("Retrieve", ctx, file.meta.ID).Return(file.freshKey(), nil).Once()
	files.On("SharedDownload", ctx, shared.ShareID).Return(file.ciphertext, nil).Once()

	plaintext, err := o.OpenShared(ctx, shared)
	require.NoError(t, err)
	defer plaintext.Close() //nolint:errcheck

	assert.Equal(t, file.plaintext, plaintext.Bytes())
	files.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestPlaintext(t *testing.T) {
	buf := []byte("secret")
	p := NewPlaintext("a.txt", "text/plain", buf)

	var out bytes.Buffer
	n, err := p.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "secret", out.String())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, make([]byte, 6), buf)
	assert.Nil(t, p.Bytes())
}
