package domain

import (
	"github.com/allisson/filevault/internal/errors"
)

// File and sharing errors.
var (
	// ErrFileNotFound is returned for missing files and for files the caller may not see.
	ErrFileNotFound = errors.Wrap(errors.ErrNotFound, "file not found")

	// ErrFileTooLarge indicates the plaintext size exceeds the configured maximum.
	ErrFileTooLarge = errors.Wrap(errors.ErrInvalidInput, "file exceeds the maximum size")

	// ErrMIMETypeNotAllowed indicates the MIME type is not on the allow-list.
	ErrMIMETypeNotAllowed = errors.Wrap(errors.ErrInvalidInput, "mime type not allowed")

	// ErrCiphertextSizeMismatch indicates the uploaded ciphertext is not size+16 bytes.
	ErrCiphertextSizeMismatch = errors.Wrap(errors.ErrInvalidInput, "ciphertext size does not match plaintext size")

	// ErrInvalidIV indicates the IV does not decode to 12 bytes.
	ErrInvalidIV = errors.Wrap(errors.ErrInvalidInput, "iv must be 12 bytes encoded as base64")

	// ErrCannotShareWithSelf indicates an owner tried to share a file with themselves.
	ErrCannotShareWithSelf = errors.Wrap(errors.ErrInvalidInput, "cannot share a file with yourself")

	// ErrShareTargetNotFound indicates the email does not belong to any user.
	ErrShareTargetNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrShareLinkNotFound indicates the share token is unknown.
	ErrShareLinkNotFound = errors.Wrap(errors.ErrNotFound, "share link not found")

	// ErrShareLinkExpired indicates the share link exists but has expired.
	ErrShareLinkExpired = errors.Wrap(errors.ErrGone, "share link expired")
)
