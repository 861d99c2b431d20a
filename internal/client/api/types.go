// Package api is the typed client of the file API. Every endpoint returns an explicit
// result type decoded from the server's JSON contract.
package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authDTO "github.com/allisson/filevault/internal/auth/http/dto"
	filesDTO "github.com/allisson/filevault/internal/files/http/dto"
)

// User is the account returned by signup, login and me.
type User struct {
	ID        uuid.UUID
	Email     string
	Username  string
	Role      authDomain.Role
	CreatedAt time.Time
}

// Principal returns the identity used for authorization checks.
func (u *User) Principal() *authDomain.Principal {
	return &authDomain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// FileMetadata describes a stored file. Name, MIME type and size are the plaintext's.
type FileMetadata struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	MIMEType       string
	Size           int64
	CiphertextSize int64
	IV             string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SharedFileMetadata describes a file reached through a share link.
type SharedFileMetadata struct {
	ShareID   uuid.UUID
	FileID    uuid.UUID
	Name      string
	MIMEType  string
	Size      int64
	IV        string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ShareLink is a created share link.
type ShareLink struct {
	ID        uuid.UUID
	FileID    uuid.UUID
	URL       string
	ExpiresAt *time.Time
}

// UploadRequest is the multipart upload. Size and MIMEType describe the plaintext.
type UploadRequest struct {
	Name       string
	MIMEType   string
	Size       int64
	IV         string
	Ciphertext []byte
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s in response: %w", field, err)
	}
	return id, nil
}

func mapUser(resp authDTO.UserResponse) (*User, error) {
	id, err := parseUUID("user id", resp.ID)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:        id,
		Email:     resp.Email,
		Username:  resp.Username,
		Role:      authDomain.Role(resp.Role),
		CreatedAt: resp.CreatedAt,
	}, nil
}

func mapFile(resp filesDTO.FileResponse) (*FileMetadata, error) {
	id, err := parseUUID("file id", resp.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := parseUUID("owner id", resp.OwnerID)
	if err != nil {
		return nil, err
	}
	return &FileMetadata{
		ID:             id,
		OwnerID:        ownerID,
		Name:           resp.Name,
		MIMEType:       resp.MIMEType,
		Size:           resp.Size,
		CiphertextSize: resp.CiphertextSize,
		IV:             resp.IV,
		CreatedAt:      resp.CreatedAt,
		UpdatedAt:      resp.UpdatedAt,
	}, nil
}

func mapFiles(resp filesDTO.ListFilesResponse) ([]*FileMetadata, error) {
	files := make([]*FileMetadata, 0, len(resp.Data))
	for _, item := range resp.Data {
		file, err := mapFile(item)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func mapSharedFile(resp filesDTO.SharedFileResponse) (*SharedFileMetadata, error) {
	shareID, err := parseUUID("share id", resp.ID)
	if err != nil {
		return nil, err
	}
	fileID, err := parseUUID("file id", resp.FileID)
	if err != nil {
		return nil, err
	}
	return &SharedFileMetadata{
		ShareID:   shareID,
		FileID:    fileID,
		Name:      resp.Name,
		MIMEType:  resp.MIMEType,
		Size:      resp.Size,
		IV:        resp.IV,
		ExpiresAt: resp.ExpiresAt,
		CreatedAt: resp.CreatedAt,
	}, nil
}

func mapShareLink(resp filesDTO.ShareLinkResponse) (*ShareLink, error) {
	id, err := parseUUID("share id", resp.ID)
	if err != nil {
		return nil, err
	}
	fileID, err := parseUUID("file id", resp.FileID)
	if err != nil {
		return nil, err
	}
	return &ShareLink{ID: id, FileID: fileID, URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}
