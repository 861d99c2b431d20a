package dto

import (
	"strings"
	"time"

	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// FileResponse represents file metadata in API responses. The IV is included so any
// holder of the key can decrypt the ciphertext.
type FileResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	MIMEType       string    `json:"mime_type"`
	Size           int64     `json:"size"`
	CiphertextSize int64     `json:"ciphertext_size"`
	IV             string    `json:"iv"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MapFileToResponse converts a domain file to an API response.
func MapFileToResponse(file *filesDomain.File) FileResponse {
	return FileResponse{
		ID:             file.ID.String(),
		OwnerID:        file.OwnerID.String(),
		Name:           file.Name,
		MIMEType:       file.MIMEType,
		Size:           file.Size,
		CiphertextSize: file.CiphertextSize,
		IV:             file.IV,
		CreatedAt:      file.CreatedAt,
		UpdatedAt:      file.UpdatedAt,
	}
}

// ListFilesResponse represents a paginated list of files.
type ListFilesResponse struct {
	Data []FileResponse `json:"data"`
}

// MapFilesToListResponse converts a slice of domain files to a list API response.
func MapFilesToListResponse(files []*filesDomain.File) ListFilesResponse {
	data := make([]FileResponse, 0, len(files))
	for _, file := range files {
		data = append(data, MapFileToResponse(file))
	}
	return ListFilesResponse{Data: data}
}

// ShareLinkResponse is returned when a share link is created.
type ShareLinkResponse struct {
	ID        string     `json:"id"`
	FileID    string     `json:"file_id"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// MapShareLinkToResponse converts a share link to an API response. The URL is
// {origin}/shared/{id}.
func MapShareLinkToResponse(link *filesDomain.ShareLink, origin string) ShareLinkResponse {
	return ShareLinkResponse{
		ID:        link.ID.String(),
		FileID:    link.FileID.String(),
		URL:       strings.TrimRight(origin, "/") + "/shared/" + link.ID.String(),
		ExpiresAt: link.ExpiresAt,
	}
}

// SharedFileResponse is the metadata of a file reached through a share link.
type SharedFileResponse struct {
	ID        string     `json:"id"`
	FileID    string     `json:"file_id"`
	Name      string     `json:"name"`
	MIMEType  string     `json:"mime_type"`
	Size      int64      `json:"size"`
	IV        string     `json:"iv"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// MapSharedFileToResponse converts a resolved share link to an API response.
func MapSharedFileToResponse(shared *filesDomain.SharedFile) SharedFileResponse {
	return SharedFileResponse{
		ID:        shared.Link.ID.String(),
		FileID:    shared.File.ID.String(),
		Name:      shared.File.Name,
		MIMEType:  shared.File.MIMEType,
		Size:      shared.File.Size,
		IV:        shared.File.IV,
		ExpiresAt: shared.Link.ExpiresAt,
		CreatedAt: shared.Link.CreatedAt,
	}
}
