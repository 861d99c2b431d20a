// Package service provides ciphertext storage for the file API on top of gocloud.dev/blob.
package service

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	apperrors "github.com/allisson/filevault/internal/errors"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// BlobStore stores opaque ciphertext objects by key.
type BlobStore interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Open returns a reader for the object. Missing objects return ErrFileNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying bucket.
	Close() error
}

type bucketBlobStore struct {
	bucket *blob.Bucket
}

// NewBlobStore opens a bucket from a gocloud URL (file://, mem://, s3://).
func NewBlobStore(ctx context.Context, bucketURL string) (BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open blob bucket")
	}
	return &bucketBlobStore{bucket: bucket}, nil
}

// NewBlobStoreFromBucket wraps an already opened bucket.
func NewBlobStoreFromBucket(bucket *blob.Bucket) BlobStore {
	return &bucketBlobStore{bucket: bucket}
}

func (b *bucketBlobStore) Put(ctx context.Context, key string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: "application/octet-stream"}
	if err := b.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return apperrors.Wrap(err, "failed to write blob")
	}
	return nil
}

func (b *bucketBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := b.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, filesDomain.ErrFileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to open blob")
	}
	return reader, nil
}

func (b *bucketBlobStore) Delete(ctx context.Context, key string) error {
	if err := b.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return apperrors.Wrap(err, "failed to delete blob")
	}
	return nil
}

func (b *bucketBlobStore) Close() error {
	return b.bucket.Close()
}
