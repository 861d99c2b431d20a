// Package removal deletes files together with their keys and reconciles the cleanups that
// could not reach a remote service at the time.
package removal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/journal"
)

// Authorizer checks an operation against the current user's role.
type Authorizer interface {
	Authorize(op authDomain.Operation) error
}

// FilesAPI removes ciphertext from the file API.
type FilesAPI interface {
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// KeyDeleter removes key records from the custodian.
type KeyDeleter interface {
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// Journal records cleanups for the Reconciler.
type Journal interface {
	Create(ctx context.Context, op *journal.Operation) error
}

// Removal is the outcome of a delete.
type Removal struct {
	FileID uuid.UUID
	// KeyDeletionPending is set when the key could not be deleted and the deletion was
	// journalled instead.
	KeyDeletionPending bool
}

// Remover deletes files.
type Remover struct {
	files      FilesAPI
	keys       KeyDeleter
	journal    Journal
	authorizer Authorizer
	logger     *slog.Logger
}

// NewRemover creates a Remover.
func NewRemover(
	files FilesAPI,
	keys KeyDeleter,
	journal Journal,
	authorizer Authorizer,
	logger *slog.Logger,
) *Remover {
	return &Remover{files: files, keys: keys, journal: journal, authorizer: authorizer, logger: logger}
}

// Delete removes the ciphertext, then the key. Once the ciphertext is gone the key
// deletion runs to completion even if ctx is cancelled; when it fails it is journalled
// and the Removal reports it as pending.
func (r *Remover) Delete(ctx context.Context, fileID uuid.UUID) (*Removal, error) {
	if err := r.authorizer.Authorize(authDomain.OperationDelete); err != nil {
		return nil, err
	}

	if err := r.files.Delete(ctx, fileID); err != nil {
		return nil, err
	}

	removal := &Removal{FileID: fileID}
	cleanupCtx := context.WithoutCancel(ctx)

	keyErr := r.keys.Delete(cleanupCtx, fileID)
	if keyErr == nil {
		r.log(slog.LevelInfo, "file removed", slog.String("file_id", fileID.String()))
		return removal, nil
	}

	r.log(slog.LevelWarn, "key deletion failed, journalling",
		slog.String("file_id", fileID.String()),
		slog.Any("error", keyErr),
	)

	op := journal.NewOperation(journal.KindDeleteKey, fileID)
	if err := r.journal.Create(cleanupCtx, op); err != nil {
		return nil, fmt.Errorf(
			"file %s removed but its key could not be deleted or journalled: %w",
			fileID,
			errors.Join(keyErr, err),
		)
	}

	removal.KeyDeletionPending = true
	return removal, nil
}

func (r *Remover) log(level slog.Level, msg string, attrs ...any) {
	if r.logger != nil {
		r.logger.Log(context.Background(), level, msg, attrs...)
	}
}
