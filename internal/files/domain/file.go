// Package domain defines the file, share and share-link entities of the file API.
//
// The server only ever holds ciphertext. Name, MIME type and size describe the plaintext
// and are supplied by the client; the IV is stored as base64 so any holder of the key
// can decrypt.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
)

// DefaultMaxFileSize is the largest plaintext accepted, 10 MiB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

var allowedMIMETypes = map[string]struct{}{
	"text/plain":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"audio/mpeg":      {},
	"video/mp4":       {},
	"application/zip": {},
}

// IsAllowedMIMEType reports whether mimeType may be uploaded. Matching ignores case.
func IsAllowedMIMEType(mimeType string) bool {
	_, ok := allowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// File is an encrypted file stored by the server.
type File struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	MIMEType       string
	Size           int64
	CiphertextSize int64
	BlobKey        string
	IV             string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExpectedCiphertextSize returns the ciphertext length an AES-GCM encryption of Size
// bytes produces.
func (f *File) ExpectedCiphertextSize() int64 {
	return cryptoDomain.CiphertextSize(f.Size)
}

// Share grants a user read access to a file owned by someone else.
type Share struct {
	FileID    uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// ShareLink is a bearer reference to a file. Its ID is the opaque share token.
type ShareLink struct {
	ID        uuid.UUID
	FileID    uuid.UUID
	CreatedBy uuid.UUID
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the link has passed its expiry. Links without an expiry
// never expire.
func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// SharedFile is the view of a file reached through a share link.
type SharedFile struct {
	Link *ShareLink
	File *File
}
