package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/client/api"
	"github.com/allisson/filevault/internal/client/removal"
	"github.com/allisson/filevault/internal/client/retrieval"
	"github.com/allisson/filevault/internal/client/upload"
	apperrors "github.com/allisson/filevault/internal/errors"
)

// FileUploader encrypts and uploads a file.
type FileUploader interface {
	Upload(ctx context.Context, c upload.Candidate) (*upload.File, error)
}

// FileRetriever downloads and decrypts a file for the duration of fn.
type FileRetriever interface {
	With(ctx context.Context, fileID uuid.UUID, fn func(*retrieval.Plaintext) error) error
}

// FileRemover deletes a file and its key.
type FileRemover interface {
	Delete(ctx context.Context, fileID uuid.UUID) (*removal.Removal, error)
}

// FileLister lists owned files and files shared with the caller.
type FileLister interface {
	List(ctx context.Context, offset, limit int) ([]*api.FileMetadata, error)
	SharedWithMe(ctx context.Context, offset, limit int) ([]*api.FileMetadata, error)
}

// RunUpload encrypts the file at path and uploads it. name defaults to the base name of
// path and mimeType is detected when empty.
func RunUpload(
	ctx context.Context,
	uploader FileUploader,
	logger *slog.Logger,
	writer io.Writer,
	path, name, mimeType, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if mimeType == "" {
		mimeType = detectMIMEType(path, content)
	}

	file, err := uploader.Upload(ctx, upload.Candidate{Name: name, MIMEType: mimeType, Content: content})
	if err != nil {
		var partial *upload.PartialUploadError
		if errors.As(err, &partial) {
			logger.Warn("upload left an unusable file",
				slog.String("file_id", partial.File.ID.String()),
				slog.Bool("rolled_back", partial.RolledBack),
			)
		}
		return fmt.Errorf("upload failed: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":        file.ID.String(),
			"name":      file.Name,
			"mime_type": file.MIMEType,
			"size":      file.Size,
			"status":    string(file.Status),
		})
	}

	_, err = fmt.Fprintf(writer, "Uploaded %s (%d bytes)\nID: %s\n", file.Name, file.Size, file.ID)
	return err
}

// RunDownload decrypts a file into output. An empty output saves it under its own name
// in the current directory and "-" writes it to writer.
func RunDownload(ctx context.Context, retriever FileRetriever, writer io.Writer, fileID, output string) error {
	id, err := parseFileID(fileID)
	if err != nil {
		return err
	}

	return retriever.With(ctx, id, func(p *retrieval.Plaintext) error {
		return savePlaintext(p, writer, output)
	})
}

// RunRemove deletes a file. A key that could not be deleted is left to reconcile.
func RunRemove(ctx context.Context, remover FileRemover, writer io.Writer, fileID string) error {
	id, err := parseFileID(fileID)
	if err != nil {
		return err
	}

	result, err := remover.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if _, err := fmt.Fprintf(writer, "Deleted %s\n", result.FileID); err != nil {
		return err
	}
	if result.KeyDeletionPending {
		_, err = fmt.Fprintln(writer, "Key deletion is pending, run reconcile to retry it")
	}
	return err
}

// RunList prints owned files, or files shared with the caller when shared is set.
func RunList(
	ctx context.Context,
	lister FileLister,
	writer io.Writer,
	shared bool,
	offset, limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	list := lister.List
	if shared {
		list = lister.SharedWithMe
	}
	files, err := list(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if format == "json" {
		items := make([]map[string]any, 0, len(files))
		for _, f := range files {
			items = append(items, map[string]any{
				"id":         f.ID.String(),
				"owner_id":   f.OwnerID.String(),
				"name":       f.Name,
				"mime_type":  f.MIMEType,
				"size":       f.Size,
				"created_at": f.CreatedAt.Format(time.RFC3339),
			})
		}
		return writeJSON(writer, map[string]any{"data": items})
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tCREATED")
	for _, f := range files {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			f.ID, f.Name, f.MIMEType, f.Size, f.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func parseFileID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid file id %q", s)
	}
	return id, nil
}

// detectMIMEType guesses from the extension first, then from the content. Parameters
// such as charset are dropped.
func detectMIMEType(path string, content []byte) string {
	detected := mime.TypeByExtension(filepath.Ext(path))
	if detected == "" {
		detected = http.DetectContentType(content)
	}
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

func savePlaintext(p *retrieval.Plaintext, writer io.Writer, output string) error {
	if output == "-" {
		_, err := p.WriteTo(writer)
		return err
	}
	if output == "" {
		output = filepath.Base(p.Name)
	}

	if err := os.WriteFile(output, p.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	_, err := fmt.Fprintf(writer, "Saved %s (%d bytes) to %s\n", p.Name, p.Size, output)
	return err
}
