// Package usecase implements file storage, sharing and share-link business logic. Every
// operation re-checks ownership or share membership; a file the caller may not see is
// reported as not found.
package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// FileRepository defines persistence operations for file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *filesDomain.File) error
	Get(ctx context.Context, fileID uuid.UUID) (*filesDomain.File, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*filesDomain.File, error)
	ListSharedWith(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*filesDomain.File, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// ShareRepository defines persistence operations for user shares.
type ShareRepository interface {
	// Create inserts a share; an existing share for the same pair is left untouched.
	Create(ctx context.Context, share *filesDomain.Share) error
	Exists(ctx context.Context, fileID, userID uuid.UUID) (bool, error)
	DeleteByFile(ctx context.Context, fileID uuid.UUID) error
}

// ShareLinkRepository defines persistence operations for share links.
type ShareLinkRepository interface {
	Create(ctx context.Context, link *filesDomain.ShareLink) error
	Get(ctx context.Context, linkID uuid.UUID) (*filesDomain.ShareLink, error)
	DeleteByFile(ctx context.Context, fileID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// UserLookup resolves share targets by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*authDomain.User, error)
}

// UploadInput carries a client-encrypted file.
type UploadInput struct {
	Name       string
	MIMEType   string
	Size       int64
	IV         string
	Ciphertext []byte
}

// FileUseCase defines operations on files owned by or shared with the caller.
type FileUseCase interface {
	Upload(ctx context.Context, caller *authDomain.Principal, input *UploadInput) (*filesDomain.File, error)
	List(ctx context.Context, caller *authDomain.Principal, offset, limit int) ([]*filesDomain.File, error)
	ListSharedWithMe(ctx context.Context, caller *authDomain.Principal, offset, limit int) ([]*filesDomain.File, error)
	GetMetadata(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID) (*filesDomain.File, error)
	OpenCiphertext(
		ctx context.Context,
		caller *authDomain.Principal,
		fileID uuid.UUID,
	) (*filesDomain.File, io.ReadCloser, error)
	Delete(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID) error
	Share(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID, email string) error
}

// ShareLinkUseCase defines share-link creation and resolution.
type ShareLinkUseCase interface {
	Create(
		ctx context.Context,
		caller *authDomain.Principal,
		fileID uuid.UUID,
		expiresIn *time.Duration,
	) (*filesDomain.ShareLink, error)
	Resolve(ctx context.Context, linkID uuid.UUID) (*filesDomain.SharedFile, error)
	OpenCiphertext(ctx context.Context, linkID uuid.UUID) (*filesDomain.SharedFile, io.ReadCloser, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
