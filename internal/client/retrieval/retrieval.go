// Package retrieval downloads and decrypts files: metadata first, then the key from the
// custodian, then the ciphertext.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/api"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
)

// ErrTamperedCiphertext is returned when the ciphertext fails authentication. No
// plaintext is ever returned with it.
var ErrTamperedCiphertext = errors.New("file failed integrity check: it was modified or the key does not match")

// Authorizer checks an operation against the current user's role.
type Authorizer interface {
	Authorize(op authDomain.Operation) error
}

// FilesAPI is the subset of the file API used for downloads.
type FilesAPI interface {
	Metadata(ctx context.Context, fileID uuid.UUID) (*api.FileMetadata, error)
	Download(ctx context.Context, fileID uuid.UUID) ([]byte, error)
	SharedDownload(ctx context.Context, shareID uuid.UUID) ([]byte, error)
}

// KeyRetriever fetches file keys from the custodian.
type KeyRetriever interface {
	Retrieve(ctx context.Context, fileID uuid.UUID) (*cryptoDomain.Key, error)
}

// Orchestrator runs the retrieval pipeline.
type Orchestrator struct {
	engine     cryptoService.Engine
	files      FilesAPI
	keys       KeyRetriever
	authorizer Authorizer
	logger     *slog.Logger
}

// NewOrchestrator creates a retrieval Orchestrator.
func NewOrchestrator(
	engine cryptoService.Engine,
	files FilesAPI,
	keys KeyRetriever,
	authorizer Authorizer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{engine: engine, files: files, keys: keys, authorizer: authorizer, logger: logger}
}

// Open returns the decrypted file. The caller must Close the result.
//
// Any role may try: guests can only reach files shared with them, and the file API and
// custodian decide which files that is.
func (o *Orchestrator) Open(ctx context.Context, fileID uuid.UUID) (*Plaintext, error) {
	if err := o.authorizer.Authorize(authDomain.OperationReadShared); err != nil {
		return nil, err
	}

	meta, err := o.files.Metadata(ctx, fileID)
	if err != nil {
		return nil, err
	}

	return o.decrypt(ctx, source{
		fileID:   fileID,
		name:     meta.Name,
		mimeType: meta.MIMEType,
		iv:       meta.IV,
		download: func(ctx context.Context) ([]byte, error) {
			return o.files.Download(ctx, fileID)
		},
	})
}

// With opens the file, passes it to fn and closes it on every path.
func (o *Orchestrator) With(ctx context.Context, fileID uuid.UUID, fn func(*Plaintext) error) error {
	plaintext, err := o.Open(ctx, fileID)
	if err != nil {
		return err
	}
	defer plaintext.Close() //nolint:errcheck
	return fn(plaintext)
}

// OpenShared decrypts a file reached through a share link whose metadata the caller
// already resolved. The key is looked up by the bound file id; the ciphertext comes
// from the share endpoint.
func (o *Orchestrator) OpenShared(ctx context.Context, shared *api.SharedFileMetadata) (*Plaintext, error) {
	if err := o.authorizer.Authorize(authDomain.OperationReadShared); err != nil {
		return nil, err
	}

	return o.decrypt(ctx, source{
		fileID:   shared.FileID,
		name:     shared.Name,
		mimeType: shared.MIMEType,
		iv:       shared.IV,
		download: func(ctx context.Context) ([]byte, error) {
			return o.files.SharedDownload(ctx, shared.ShareID)
		},
	})
}

type source struct {
	fileID   uuid.UUID
	name     string
	mimeType string
	iv       string
	download func(ctx context.Context) ([]byte, error)
}

func (o *Orchestrator) decrypt(ctx context.Context, src source) (*Plaintext, error) {
	iv, err := cryptoService.DecodeIV(src.iv)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := o.keys.Retrieve(ctx, src.fileID)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ciphertext, err := src.download(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := o.engine.Decrypt(ciphertext, iv, key)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrAuthenticationFailed) {
			if o.logger != nil {
				o.logger.Warn("ciphertext failed authentication", slog.String("file_id", src.fileID.String()))
			}
			return nil, fmt.Errorf("%w: %w", ErrTamperedCiphertext, err)
		}
		return nil, err
	}

	return NewPlaintext(src.name, src.mimeType, plaintext), nil
}
