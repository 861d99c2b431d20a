// Package sharing creates share links and resolves them back into plaintext.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/api"
	"github.com/allisson/filevault/internal/client/retrieval"
	apperrors "github.com/allisson/filevault/internal/errors"
)

var (
	// ErrLinkExpired is returned for a share link past its expiry.
	ErrLinkExpired = apperrors.Wrap(apperrors.ErrGone, "share link expired")

	// ErrLinkNotFound is returned for an unknown share link.
	ErrLinkNotFound = apperrors.Wrap(apperrors.ErrNotFound, "share link not found")

	// ErrInvalidLink is returned when the input is neither a share id nor a share URL.
	ErrInvalidLink = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid share link")
)

// Link is a created share link.
type Link struct {
	ShareID   uuid.UUID
	FileID    uuid.UUID
	URL       string
	ExpiresAt *time.Time
}

// Authorizer checks an operation against the current user's role.
type Authorizer interface {
	Authorize(op authDomain.Operation) error
}

// FilesAPI is the subset of the file API used for sharing.
type FilesAPI interface {
	Share(ctx context.Context, fileID uuid.UUID, email string) error
	CreateShareLink(ctx context.Context, fileID uuid.UUID, expiresIn *time.Duration) (*api.ShareLink, error)
	SharedMetadata(ctx context.Context, shareID uuid.UUID) (*api.SharedFileMetadata, error)
}

// SharedOpener decrypts a file reached through a share link.
type SharedOpener interface {
	OpenShared(ctx context.Context, shared *api.SharedFileMetadata) (*retrieval.Plaintext, error)
}

// Resolver creates and resolves share links.
type Resolver struct {
	files      FilesAPI
	opener     SharedOpener
	authorizer Authorizer
	origin     string
	logger     *slog.Logger
	now        func() time.Time
}

// NewResolver creates a Resolver. When origin is set, link URLs are built as
// {origin}/shared/{shareId}; otherwise the URL returned by the file API is kept.
func NewResolver(
	files FilesAPI,
	opener SharedOpener,
	authorizer Authorizer,
	origin string,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		files:      files,
		opener:     opener,
		authorizer: authorizer,
		origin:     strings.TrimRight(origin, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateLink creates a share link for a file the caller owns. A nil expiresIn creates a
// link that never expires.
func (r *Resolver) CreateLink(ctx context.Context, fileID uuid.UUID, expiresIn *time.Duration) (*Link, error) {
	if err := r.authorizer.Authorize(authDomain.OperationShare); err != nil {
		return nil, err
	}
	if expiresIn != nil && *expiresIn <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "expiry must be positive")
	}

	created, err := r.files.CreateShareLink(ctx, fileID, expiresIn)
	if err != nil {
		return nil, err
	}

	link := &Link{
		ShareID:   created.ID,
		FileID:    created.FileID,
		URL:       created.URL,
		ExpiresAt: created.ExpiresAt,
	}
	if r.origin != "" {
		link.URL = r.origin + "/shared/" + created.ID.String()
	}

	r.log("share link created", slog.String("file_id", fileID.String()), slog.String("share_id", link.ShareID.String()))
	return link, nil
}

// ShareWithUser grants the user with the given email read access to a file.
func (r *Resolver) ShareWithUser(ctx context.Context, fileID uuid.UUID, email string) error {
	if err := r.authorizer.Authorize(authDomain.OperationShare); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "email is required")
	}

	if err := r.files.Share(ctx, fileID, email); err != nil {
		return err
	}

	r.log("file shared", slog.String("file_id", fileID.String()))
	return nil
}

// Resolve decrypts the file behind a share link. tokenOrURL is a share id or a URL ending
// in /shared/{shareId}. Expired and unknown links fail before any key or ciphertext is
// requested. The caller must Close the result.
func (r *Resolver) Resolve(ctx context.Context, tokenOrURL string) (*retrieval.Plaintext, error) {
	if err := r.authorizer.Authorize(authDomain.OperationReadShared); err != nil {
		return nil, err
	}

	shareID, err := ParseShareID(tokenOrURL)
	if err != nil {
		return nil, err
	}

	shared, err := r.files.SharedMetadata(ctx, shareID)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrGone):
		return nil, fmt.Errorf("%w: %w", ErrLinkExpired, err)
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", ErrLinkNotFound, err)
	default:
		return nil, err
	}

	if shared.ExpiresAt != nil && !r.now().Before(*shared.ExpiresAt) {
		return nil, ErrLinkExpired
	}

	return r.opener.OpenShared(ctx, shared)
}

// ParseShareID extracts the share id from a raw id or a share URL.
func ParseShareID(tokenOrURL string) (uuid.UUID, error) {
	value := strings.TrimSpace(tokenOrURL)
	if value == "" {
		return uuid.Nil, ErrInvalidLink
	}

	if id, err := uuid.Parse(value); err == nil {
		return id, nil
	}

	u, err := url.Parse(value)
	if err != nil {
		return uuid.Nil, ErrInvalidLink
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 2; i >= 0; i-- {
		if segments[i] != "shared" {
			continue
		}
		id, err := uuid.Parse(segments[i+1])
		if err != nil {
			return uuid.Nil, ErrInvalidLink
		}
		return id, nil
	}
	return uuid.Nil, ErrInvalidLink
}

func (r *Resolver) log(msg string, attrs ...any) {
	if r.logger != nil {
		r.logger.Info(msg, attrs...)
	}
}
