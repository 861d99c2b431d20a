package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	"github.com/allisson/filevault/internal/database"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	filesService "github.com/allisson/filevault/internal/files/service"
	appValidation "github.com/allisson/filevault/internal/validation"
)

// Config holds file use case configuration.
type Config struct {
	MaxFileSize int64
}

type fileUseCase struct {
	config        Config
	txManager     database.TxManager
	fileRepo      FileRepository
	shareRepo     ShareRepository
	shareLinkRepo ShareLinkRepository
	userLookup    UserLookup
	blobStore     filesService.BlobStore
	logger        *slog.Logger
}

// Upload validates the upload against the plaintext metadata, stores the ciphertext and
// then the row. If the row cannot be written the blob is removed again.
func (f *fileUseCase) Upload(
	ctx context.Context,
	caller *authDomain.Principal,
	input *UploadInput,
) (*filesDomain.File, error) {
	if !authDomain.IsAllowed(caller.Role, authDomain.OperationUpload) {
		return nil, authDomain.ErrOperationNotAllowed
	}
	if err := f.validateUpload(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fileID := uuid.Must(uuid.NewV7())
	file := &filesDomain.File{
		ID:             fileID,
		OwnerID:        caller.UserID,
		Name:           strings.TrimSpace(input.Name),
		MIMEType:       strings.ToLower(strings.TrimSpace(input.MIMEType)),
		Size:           input.Size,
		CiphertextSize: int64(len(input.Ciphertext)),
		BlobKey:        fileID.String(),
		IV:             input.IV,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := f.blobStore.Put(ctx, file.BlobKey, input.Ciphertext); err != nil {
		return nil, err
	}

	if err := f.fileRepo.Create(ctx, file); err != nil {
		if delErr := f.blobStore.Delete(context.WithoutCancel(ctx), file.BlobKey); delErr != nil {
			f.logger.Error("failed to remove orphaned blob",
				slog.String("file_id", file.ID.String()),
				slog.Any("error", delErr),
			)
		}
		return nil, err
	}

	return file, nil
}

func (f *fileUseCase) validateUpload(input *UploadInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name, validation.Required, appValidation.NotBlank, appValidation.FileName),
		validation.Field(&input.MIMEType, validation.Required),
		validation.Field(&input.IV, validation.Required, appValidation.Base64),
		validation.Field(&input.Size, validation.Min(int64(0))),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	if input.Size > f.config.MaxFileSize {
		return filesDomain.ErrFileTooLarge
	}
	if !filesDomain.IsAllowedMIMEType(input.MIMEType) {
		return filesDomain.ErrMIMETypeNotAllowed
	}
	if _, err := cryptoService.DecodeIV(input.IV); err != nil {
		return filesDomain.ErrInvalidIV
	}
	if int64(len(input.Ciphertext)) != (&filesDomain.File{Size: input.Size}).ExpectedCiphertextSize() {
		return filesDomain.ErrCiphertextSizeMismatch
	}
	return nil
}

// List returns the caller's own files.
func (f *fileUseCase) List(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	if !authDomain.IsAllowed(caller.Role, authDomain.OperationReadOwn) {
		return nil, authDomain.ErrOperationNotAllowed
	}
	return f.fileRepo.ListByOwner(ctx, caller.UserID, offset, limit)
}

// ListSharedWithMe returns files other users shared with the caller.
func (f *fileUseCase) ListSharedWithMe(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	return f.fileRepo.ListSharedWith(ctx, caller.UserID, offset, limit)
}

// GetMetadata returns file metadata to its owner, to users it is shared with and to admins.
func (f *fileUseCase) GetMetadata(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, error) {
	return f.readable(ctx, caller, fileID)
}

// OpenCiphertext returns the metadata and a reader over the stored ciphertext. The
// caller must close the reader.
func (f *fileUseCase) OpenCiphertext(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, io.ReadCloser, error) {
	file, err := f.readable(ctx, caller, fileID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := f.blobStore.Open(ctx, file.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return file, reader, nil
}

// Delete removes the file row with its shares and links, then the ciphertext, in one
// transaction. A failed blob delete rolls the rows back so the file can be deleted
// again. Only the owner may delete.
func (f *fileUseCase) Delete(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID) error {
	file, err := f.owned(ctx, caller, fileID, authDomain.OperationDelete)
	if err != nil {
		return err
	}

	return f.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := f.shareRepo.DeleteByFile(ctx, file.ID); err != nil {
			return err
		}
		if err := f.shareLinkRepo.DeleteByFile(ctx, file.ID); err != nil {
			return err
		}
		if err := f.fileRepo.Delete(ctx, file.ID); err != nil {
			return err
		}

		if err := f.blobStore.Delete(ctx, file.BlobKey); err != nil {
			f.logger.Error("failed to delete blob",
				slog.String("file_id", file.ID.String()),
				slog.Any("error", err),
			)
			return err
		}
		return nil
	})
}

// Share grants read access to the user with the given email. Sharing twice is a no-op.
func (f *fileUseCase) Share(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	email string,
) error {
	file, err := f.owned(ctx, caller, fileID, authDomain.OperationShare)
	if err != nil {
		return err
	}

	target, err := f.userLookup.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return filesDomain.ErrShareTargetNotFound
		}
		return err
	}
	if target.ID == caller.UserID {
		return filesDomain.ErrCannotShareWithSelf
	}

	return f.shareRepo.Create(ctx, &filesDomain.Share{
		FileID:    file.ID,
		UserID:    target.ID,
		CreatedAt: time.Now().UTC(),
	})
}

// readable loads a file the caller may read.
func (f *fileUseCase) readable(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, error) {
	file, err := f.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID == caller.UserID || caller.Role == authDomain.RoleAdmin {
		return file, nil
	}

	shared, err := f.shareRepo.Exists(ctx, file.ID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, filesDomain.ErrFileNotFound
	}
	return file, nil
}

// owned loads a file owned by the caller. Files of other users are reported as not found.
func (f *fileUseCase) owned(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	op authDomain.Operation,
) (*filesDomain.File, error) {
	if !authDomain.IsAllowed(caller.Role, op) {
		return nil, authDomain.ErrOperationNotAllowed
	}
	file, err := f.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != caller.UserID {
		return nil, filesDomain.ErrFileNotFound
	}
	return file, nil
}

// NewFileUseCase creates a new FileUseCase.
func NewFileUseCase(
	config Config,
	txManager database.TxManager,
	fileRepo FileRepository,
	shareRepo ShareRepository,
	shareLinkRepo ShareLinkRepository,
	userLookup UserLookup,
	blobStore filesService.BlobStore,
	logger *slog.Logger,
) FileUseCase {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = filesDomain.DefaultMaxFileSize
	}
	return &fileUseCase{
		config:        config,
		txManager:     txManager,
		fileRepo:      fileRepo,
		shareRepo:     shareRepo,
		shareLinkRepo: shareLinkRepo,
		userLookup:    userLookup,
		blobStore:     blobStore,
		logger:        logger,
	}
}
