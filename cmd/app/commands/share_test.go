package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/filevault/internal/client/retrieval"
	"github.com/allisson/filevault/internal/client/sharing"
	apperrors "github.com/allisson/filevault/internal/errors"
)

type mockSharer struct {
	mock.Mock
}

func (m *mockSharer) ShareWithUser(ctx context.Context, fileID uuid.UUID, email string) error {
	return m.Called(ctx, fileID, email).Error(0)
}

func (m *mockSharer) CreateLink(ctx context.Context, fileID uuid.UUID, expiresIn *time.Duration) (*sharing.Link, error) {
	args := m.Called(ctx, fileID, expiresIn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharing.Link), args.Error(1)
}

func (m *mockSharer) Resolve(ctx context.Context, tokenOrURL string) (*retrieval.Plaintext, error) {
	args := m.Called(ctx, tokenOrURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Plaintext), args.Error(1)
}

func TestRunShare(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.Must(uuid.NewV7())

	t.Run("success", func(t *testing.T) {
		sharer := &mockSharer{}
		sharer.On("ShareWithUser", ctx, fileID, "bob@example.com").Return(nil)

		var out bytes.Buffer
		require.NoError(t, RunShare(ctx, sharer, &out, fileID.String(), "bob@example.com"))
		assert.Equal(t, "Shared "+fileID.String()+" with bob@example.com\n", out.String())
	})

	t.Run("error", func(t *testing.T) {
		sharer := &mockSharer{}
		sharer.On("ShareWithUser", ctx, fileID, "bob@example.com").Return(apperrors.ErrNotFound)

		err := RunShare(ctx, sharer, &bytes.Buffer{}, fileID.String(), "bob@example.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestRunShareLink(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.Must(uuid.NewV7())
	expiresAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	link := &sharing.Link{
		ShareID:   uuid.Must(uuid.NewV7()),
		FileID:    fileID,
		URL:       "https://share.example.com/shared/abc",
		ExpiresAt: &expiresAt,
	}

	t.Run("server default expiry", func(t *testing.T) {
		sharer := &mockSharer{}
		sharer.On("CreateLink", ctx, fileID, (*time.Duration)(nil)).Return(link, nil)

		var out bytes.Buffer
		require.NoError(t, RunShareLink(ctx, sharer, &out, fileID.String(), 0, "text"))
		assert.Contains(t, out.String(), "https://share.example.com/shared/abc")
		assert.Contains(t, out.String(), "Expires at 2026-10-19T12:00:00Z")
	})

	t.Run("explicit expiry", func(t *testing.T) {
		sharer := &mockSharer{}
		sharer.On("CreateLink", ctx, fileID, mock.MatchedBy(func(d *time.Duration) bool {
			return d != nil && *d == time.Hour
		})).Return(link, nil)

		var out bytes.Buffer
		require.NoError(t, RunShareLink(ctx, sharer, &out, fileID.String(), time.Hour, "json"))
		assert.Contains(t, out.String(), `"expires_at": "2026-10-19T12:00:00Z"`)
		sharer.AssertExpectations(t)
	})

	t.Run("invalid expiry", func(t *testing.T) {
		sharer := &mockSharer{}
		sharer.On("CreateLink", ctx, fileID, mock.Anything).Return(nil, sharing.ErrInvalidLink)

		err := RunShareLink(ctx, sharer, &bytes.Buffer{}, fileID.String(), -time.Hour, "text")
		require.ErrorIs(t, err, sharing.ErrInvalidLink)
	})
}

func TestRunOpenLink(t *testing.T) {
	ctx := context.Background()
	url := "https://share.example.com/shared/abc"

	t.Run("saves the file", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "doc.txt")
		resolver := &mockSharer{}
		resolver.On("Resolve", ctx, url).Return(retrieval.NewPlaintext("doc.txt", "text/plain", []byte("shared")), nil)

		require.NoError(t, RunOpenLink(ctx, resolver, &bytes.Buffer{}, url, output))
		got, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "shared", string(got))
	})

	t.Run("expired", func(t *testing.T) {
		resolver := &mockSharer{}
		resolver.On("Resolve", ctx, url).Return(nil, sharing.ErrLinkExpired)

		err := RunOpenLink(ctx, resolver, &bytes.Buffer{}, url, "-")
		require.ErrorIs(t, err, sharing.ErrLinkExpired)
	})
}
