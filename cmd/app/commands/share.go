package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/client/retrieval"
	"github.com/allisson/filevault/internal/client/sharing"
)

// Sharer grants access to a file.
type Sharer interface {
	ShareWithUser(ctx context.Context, fileID uuid.UUID, email string) error
	CreateLink(ctx context.Context, fileID uuid.UUID, expiresIn *time.Duration) (*sharing.Link, error)
}

// LinkResolver decrypts the file behind a share link.
type LinkResolver interface {
	Resolve(ctx context.Context, tokenOrURL string) (*retrieval.Plaintext, error)
}

// RunShare grants a registered user access to a file.
func RunShare(ctx context.Context, sharer Sharer, writer io.Writer, fileID, email string) error {
	id, err := parseFileID(fileID)
	if err != nil {
		return err
	}

	if err := sharer.ShareWithUser(ctx, id, email); err != nil {
		return fmt.Errorf("share failed: %w", err)
	}

	_, err = fmt.Fprintf(writer, "Shared %s with %s\n", id, email)
	return err
}

// RunShareLink creates a share link. A zero expiresIn uses the server default.
func RunShareLink(
	ctx context.Context,
	sharer Sharer,
	writer io.Writer,
	fileID string,
	expiresIn time.Duration,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	id, err := parseFileID(fileID)
	if err != nil {
		return err
	}

	var expiry *time.Duration
	if expiresIn != 0 {
		expiry = &expiresIn
	}

	link, err := sharer.CreateLink(ctx, id, expiry)
	if err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}

	if format == "json" {
		out := map[string]any{
			"id":      link.ShareID.String(),
			"file_id": link.FileID.String(),
			"url":     link.URL,
		}
		if link.ExpiresAt != nil {
			out["expires_at"] = link.ExpiresAt.Format(time.RFC3339)
		}
		return writeJSON(writer, out)
	}

	if _, err := fmt.Fprintln(writer, link.URL); err != nil {
		return err
	}
	if link.ExpiresAt != nil {
		_, err = fmt.Fprintf(writer, "Expires at %s\n", link.ExpiresAt.Format(time.RFC3339))
	}
	return err
}

// RunOpenLink decrypts the file behind a share link into output, following the same
// output rules as RunDownload.
func RunOpenLink(ctx context.Context, resolver LinkResolver, writer io.Writer, link, output string) error {
	plaintext, err := resolver.Resolve(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to open share link: %w", err)
	}
	defer func() {
		_ = plaintext.Close()
	}()

	return savePlaintext(plaintext, writer, output)
}
