package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	filesService "github.com/allisson/filevault/internal/files/service"
)

// ErrInvalidExpiry indicates a non-positive link lifetime.
var ErrInvalidExpiry = apperrors.Wrap(apperrors.ErrInvalidInput, "expires_in_seconds must be positive")

type shareLinkUseCase struct {
	fileRepo      FileRepository
	shareLinkRepo ShareLinkRepository
	blobStore     filesService.BlobStore
	now           func() time.Time
}

// Create issues a share link for a file owned by the caller. A nil expiresIn creates a
// link that never expires.
func (s *shareLinkUseCase) Create(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	expiresIn *time.Duration,
) (*filesDomain.ShareLink, error) {
	if !authDomain.IsAllowed(caller.Role, authDomain.OperationShare) {
		return nil, authDomain.ErrOperationNotAllowed
	}
	if expiresIn != nil && *expiresIn <= 0 {
		return nil, ErrInvalidExpiry
	}

	file, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != caller.UserID {
		return nil, filesDomain.ErrFileNotFound
	}

	now := s.now()
	link := &filesDomain.ShareLink{
		ID:        uuid.Must(uuid.NewV7()),
		FileID:    file.ID,
		CreatedBy: caller.UserID,
		CreatedAt: now,
	}
	if expiresIn != nil {
		expiresAt := now.Add(*expiresIn)
		link.ExpiresAt = &expiresAt
	}

	if err := s.shareLinkRepo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Resolve returns the link and its file. Expired links return ErrShareLinkExpired; links
// whose file was deleted return ErrShareLinkNotFound.
func (s *shareLinkUseCase) Resolve(ctx context.Context, linkID uuid.UUID) (*filesDomain.SharedFile, error) {
	link, err := s.shareLinkRepo.Get(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(s.now()) {
		return nil, filesDomain.ErrShareLinkExpired
	}

	file, err := s.fileRepo.Get(ctx, link.FileID)
	if err != nil {
		if errors.Is(err, filesDomain.ErrFileNotFound) {
			return nil, filesDomain.ErrShareLinkNotFound
		}
		return nil, err
	}

	return &filesDomain.SharedFile{Link: link, File: file}, nil
}

// OpenCiphertext resolves the link and returns a reader over the ciphertext.
func (s *shareLinkUseCase) OpenCiphertext(
	ctx context.Context,
	linkID uuid.UUID,
) (*filesDomain.SharedFile, io.ReadCloser, error) {
	shared, err := s.Resolve(ctx, linkID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.blobStore.Open(ctx, shared.File.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return shared, reader, nil
}

// PurgeExpired deletes links that expired before the cutoff.
func (s *shareLinkUseCase) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.shareLinkRepo.DeleteExpired(ctx, before)
}

// NewShareLinkUseCase creates a new ShareLinkUseCase.
func NewShareLinkUseCase(
	fileRepo FileRepository,
	shareLinkRepo ShareLinkRepository,
	blobStore filesService.BlobStore,
) ShareLinkUseCase {
	return &shareLinkUseCase{
		fileRepo:      fileRepo,
		shareLinkRepo: shareLinkRepo,
		blobStore:     blobStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}
