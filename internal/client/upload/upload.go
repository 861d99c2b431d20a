// Package upload encrypts files on the client and stores the ciphertext with the file
// API and the key with the key custodian.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/api"
	"github.com/allisson/filevault/internal/client/journal"
	"github.com/allisson/filevault/internal/client/transport"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	appValidation "github.com/allisson/filevault/internal/validation"
)

// Status tells whether an uploaded file can be decrypted.
type Status string

const (
	// StatusReady means both the ciphertext and the key are stored.
	StatusReady Status = "ready"
	// StatusUnusable means the ciphertext was stored but its key was not.
	StatusUnusable Status = "unusable"
)

var (
	// ErrPartialUpload matches every *PartialUploadError.
	ErrPartialUpload = errors.New("upload incomplete: the key could not be stored")

	// ErrUploadOutcomeUnknown means the ciphertext request failed without a server
	// response, so the server may hold a file the client never learned the id of.
	ErrUploadOutcomeUnknown = errors.New("upload outcome unknown: check the file list before retrying")
)

// Candidate is a plaintext file to upload.
type Candidate struct {
	Name     string
	MIMEType string
	Content  []byte
}

// File is an uploaded file.
type File struct {
	ID             uuid.UUID
	Name           string
	MIMEType       string
	Size           int64
	CiphertextSize int64
	IV             string
	CreatedAt      time.Time
	Status         Status
}

// PartialUploadError reports a ciphertext stored without its key. File.Status is
// StatusUnusable; RolledBack tells whether the ciphertext and any key the custodian
// may have kept were removed again, or their removal was journalled.
type PartialUploadError struct {
	File       *File
	RolledBack bool
	Err        error
}

func (e *PartialUploadError) Error() string {
	state := "cleanup journalled"
	if e.RolledBack {
		state = "ciphertext removed"
	}
	return fmt.Sprintf("%s (file %s, %s): %v", ErrPartialUpload, e.File.ID, state, e.Err)
}

func (e *PartialUploadError) Unwrap() []error {
	return []error{ErrPartialUpload, e.Err}
}

// Authorizer checks an operation against the current user's role.
type Authorizer interface {
	Authorize(op authDomain.Operation) error
}

// FilesAPI is the subset of the file API used by uploads.
type FilesAPI interface {
	Upload(ctx context.Context, in api.UploadRequest) (*api.FileMetadata, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// KeyStore stores file keys with the custodian. Delete treats a missing key as deleted.
type KeyStore interface {
	Store(ctx context.Context, fileID uuid.UUID, key *cryptoDomain.Key) error
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// Journal records cleanups that must be retried later.
type Journal interface {
	Create(ctx context.Context, op *journal.Operation) error
}

// Config holds upload configuration.
type Config struct {
	MaxFileSize      int64
	KeyStoreAttempts int
	KeyStoreBackoff  time.Duration
}

// Orchestrator runs the upload pipeline.
type Orchestrator struct {
	engine     cryptoService.Engine
	files      FilesAPI
	keys       KeyStore
	journal    Journal
	authorizer Authorizer
	config     Config
	logger     *slog.Logger
}

// NewOrchestrator creates an upload Orchestrator.
func NewOrchestrator(
	engine cryptoService.Engine,
	files FilesAPI,
	keys KeyStore,
	journal Journal,
	authorizer Authorizer,
	config Config,
	logger *slog.Logger,
) *Orchestrator {
	if config.KeyStoreAttempts < 2 {
		config.KeyStoreAttempts = 2
	}
	return &Orchestrator{
		engine:     engine,
		files:      files,
		keys:       keys,
		journal:    journal,
		authorizer: authorizer,
		config:     config,
		logger:     logger,
	}
}

// Upload validates, encrypts and stores c. On success the returned File is StatusReady.
// When the key cannot be stored the error is a *PartialUploadError, never a success.
// The key is wiped on every path.
func (o *Orchestrator) Upload(ctx context.Context, c Candidate) (*File, error) {
	if err := o.authorizer.Authorize(authDomain.OperationUpload); err != nil {
		return nil, err
	}
	if err := o.validate(&c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := o.engine.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	sealed, err := o.engine.Encrypt(c.Content, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := o.files.Upload(ctx, api.UploadRequest{
		Name:       c.Name,
		MIMEType:   c.MIMEType,
		Size:       int64(len(c.Content)),
		IV:         cryptoService.EncodeIV(sealed.IV),
		Ciphertext: sealed.Ciphertext,
	})
	if err != nil {
		if !rejectedByServer(err) {
			return nil, fmt.Errorf("failed to upload ciphertext: %w", errors.Join(ErrUploadOutcomeUnknown, err))
		}
		return nil, apperrors.Wrap(err, "failed to upload ciphertext")
	}
	file := newFile(meta)

	if err := ctx.Err(); err != nil {
		return nil, o.cancelled(ctx, file, false, err)
	}

	if err := o.storeKey(ctx, file.ID, key); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, o.cancelled(ctx, file, true, ctxErr)
		}
		file.Status = StatusUnusable
		rollbackErr := o.rollback(ctx, file.ID, true)
		return nil, &PartialUploadError{File: file, RolledBack: rollbackErr == nil, Err: err}
	}

	file.Status = StatusReady
	if o.logger != nil {
		o.logger.Info("file uploaded", slog.String("file_id", file.ID.String()), slog.Int64("size", file.Size))
	}
	return file, nil
}

func (o *Orchestrator) validate(c *Candidate) error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, appValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&c.MIMEType, validation.Required),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	if int64(len(c.Content)) > o.config.MaxFileSize {
		return filesDomain.ErrFileTooLarge
	}
	if !filesDomain.IsAllowedMIMEType(c.MIMEType) {
		return filesDomain.ErrMIMETypeNotAllowed
	}
	return nil
}

// storeKey stores key with at least one retry, pausing KeyStoreBackoff between attempts.
func (o *Orchestrator) storeKey(ctx context.Context, fileID uuid.UUID, key *cryptoDomain.Key) error {
	var err error
	for attempt := 1; attempt <= o.config.KeyStoreAttempts; attempt++ {
		if err = o.keys.Store(ctx, fileID, key); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == o.config.KeyStoreAttempts {
			break
		}

		if o.logger != nil {
			o.logger.Warn("key store failed, retrying",
				slog.String("file_id", fileID.String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}

		timer := time.NewTimer(o.config.KeyStoreBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// cancelled removes a ciphertext stored before the caller gave up, and the key when a
// store was attempted.
func (o *Orchestrator) cancelled(ctx context.Context, file *File, keyAttempted bool, cause error) error {
	if err := o.rollback(ctx, file.ID, keyAttempted); err != nil {
		return fmt.Errorf("upload cancelled, removal of file %s journalled: %w", file.ID, errors.Join(cause, err))
	}
	return fmt.Errorf("upload cancelled, file %s removed: %w", file.ID, cause)
}

// rollback deletes the ciphertext, then the key when a store was attempted, on a
// context detached from ctx's cancellation. A store that failed or timed out may still
// have been saved by the custodian. Each failed delete is journalled.
func (o *Orchestrator) rollback(ctx context.Context, fileID uuid.UUID, keyAttempted bool) error {
	rollbackCtx := context.WithoutCancel(ctx)

	err := o.undo(rollbackCtx, journal.KindDeleteCiphertext, fileID, func() error {
		if err := o.files.Delete(rollbackCtx, fileID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return nil
	})
	if keyAttempted {
		err = errors.Join(err, o.undo(rollbackCtx, journal.KindDeleteKey, fileID, func() error {
			return o.keys.Delete(rollbackCtx, fileID)
		}))
	}
	return err
}

func (o *Orchestrator) undo(ctx context.Context, kind journal.OperationKind, fileID uuid.UUID, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	if o.logger != nil {
		o.logger.Error("failed to roll back upload",
			slog.String("kind", string(kind)),
			slog.String("file_id", fileID.String()),
			slog.Any("error", err),
		)
	}
	if journalErr := o.journal.Create(ctx, journal.NewOperation(kind, fileID)); journalErr != nil {
		return errors.Join(err, fmt.Errorf("failed to journal %s: %w", kind, journalErr))
	}
	return err
}

// rejectedByServer reports whether err carries a server answer. Any other failure,
// including cancellation mid-request, leaves the server state unknown.
func rejectedByServer(err error) bool {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	for _, kind := range []error{
		apperrors.ErrInvalidInput,
		apperrors.ErrUnauthorized,
		apperrors.ErrForbidden,
		apperrors.ErrConflict,
		apperrors.ErrTooManyRequests,
	} {
		if apperrors.Is(err, kind) {
			return true
		}
	}
	return false
}

func newFile(meta *api.FileMetadata) *File {
	return &File{
		ID:             meta.ID,
		Name:           meta.Name,
		MIMEType:       meta.MIMEType,
		Size:           meta.Size,
		CiphertextSize: meta.CiphertextSize,
		IV:             meta.IV,
		CreatedAt:      meta.CreatedAt,
	}
}
