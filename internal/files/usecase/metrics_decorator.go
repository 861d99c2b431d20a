package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	"github.com/allisson/filevault/internal/metrics"
)

// fileUseCaseWithMetrics decorates FileUseCase with metrics instrumentation.
type fileUseCaseWithMetrics struct {
	next    FileUseCase
	metrics metrics.BusinessMetrics
}

// NewFileUseCaseWithMetrics wraps a FileUseCase with metrics recording.
func NewFileUseCaseWithMetrics(useCase FileUseCase, m metrics.BusinessMetrics) FileUseCase {
	return &fileUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func recordFiles(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	metrics.Observe(ctx, m, metrics.DomainFiles, operation, start, err)
}

// Upload records metrics for file uploads.
func (f *fileUseCaseWithMetrics) Upload(
	ctx context.Context,
	caller *authDomain.Principal,
	input *UploadInput,
) (*filesDomain.File, error) {
	start := time.Now()
	file, err := f.next.Upload(ctx, caller, input)
	recordFiles(ctx, f.metrics, "file_upload", start, err)
	return file, err
}

// List records metrics for listing own files.
func (f *fileUseCaseWithMetrics) List(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	start := time.Now()
	files, err := f.next.List(ctx, caller, offset, limit)
	recordFiles(ctx, f.metrics, "file_list", start, err)
	return files, err
}

// ListSharedWithMe records metrics for listing shared files.
func (f *fileUseCaseWithMetrics) ListSharedWithMe(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	start := time.Now()
	files, err := f.next.ListSharedWithMe(ctx, caller, offset, limit)
	recordFiles(ctx, f.metrics, "file_list_shared", start, err)
	return files, err
}

// GetMetadata records metrics for metadata reads.
func (f *fileUseCaseWithMetrics) GetMetadata(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, error) {
	start := time.Now()
	file, err := f.next.GetMetadata(ctx, caller, fileID)
	recordFiles(ctx, f.metrics, "file_metadata", start, err)
	return file, err
}

// OpenCiphertext records metrics for ciphertext downloads.
func (f *fileUseCaseWithMetrics) OpenCiphertext(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, io.ReadCloser, error) {
	start := time.Now()
	file, reader, err := f.next.OpenCiphertext(ctx, caller, fileID)
	recordFiles(ctx, f.metrics, "file_download", start, err)
	return file, reader, err
}

// Delete records metrics for file deletion.
func (f *fileUseCaseWithMetrics) Delete(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID) error {
	start := time.Now()
	err := f.next.Delete(ctx, caller, fileID)
	recordFiles(ctx, f.metrics, "file_delete", start, err)
	return err
}

// Share records metrics for user shares.
func (f *fileUseCaseWithMetrics) Share(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	email string,
) error {
	start := time.Now()
	err := f.next.Share(ctx, caller, fileID, email)
	recordFiles(ctx, f.metrics, "file_share", start, err)
	return err
}

// shareLinkUseCaseWithMetrics decorates ShareLinkUseCase with metrics instrumentation.
type shareLinkUseCaseWithMetrics struct {
	next    ShareLinkUseCase
	metrics metrics.BusinessMetrics
}

// NewShareLinkUseCaseWithMetrics wraps a ShareLinkUseCase with metrics recording.
func NewShareLinkUseCaseWithMetrics(useCase ShareLinkUseCase, m metrics.BusinessMetrics) ShareLinkUseCase {
	return &shareLinkUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for share-link creation.
func (s *shareLinkUseCaseWithMetrics) Create(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	expiresIn *time.Duration,
) (*filesDomain.ShareLink, error) {
	start := time.Now()
	link, err := s.next.Create(ctx, caller, fileID, expiresIn)
	recordFiles(ctx, s.metrics, "share_link_create", start, err)
	return link, err
}

// Resolve records metrics for share-link resolution.
func (s *shareLinkUseCaseWithMetrics) Resolve(ctx context.Context, linkID uuid.UUID) (*filesDomain.SharedFile, error) {
	start := time.Now()
	shared, err := s.next.Resolve(ctx, linkID)
	recordFiles(ctx, s.metrics, "share_link_resolve", start, err)
	return shared, err
}

// OpenCiphertext records metrics for ciphertext downloads through a link.
func (s *shareLinkUseCaseWithMetrics) OpenCiphertext(
	ctx context.Context,
	linkID uuid.UUID,
) (*filesDomain.SharedFile, io.ReadCloser, error) {
	start := time.Now()
	shared, reader, err := s.next.OpenCiphertext(ctx, linkID)
	recordFiles(ctx, s.metrics, "share_link_download", start, err)
	return shared, reader, err
}

// PurgeExpired records metrics for expired link cleanup.
func (s *shareLinkUseCaseWithMetrics) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()
	count, err := s.next.PurgeExpired(ctx, before)
	recordFiles(ctx, s.metrics, "share_link_purge", start, err)
	return count, err
}
