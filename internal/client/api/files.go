package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/client/transport"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	filesDTO "github.com/allisson/filevault/internal/files/http/dto"
)

// FilesAPI calls the /files endpoints. Every call carries the access token.
type FilesAPI struct {
	client       *transport.Client
	baseURL      string
	maxPlaintext int64
}

// NewFilesAPI creates a FilesAPI. maxFileSize bounds how much ciphertext a download reads.
func NewFilesAPI(client *transport.Client, baseURL string, maxFileSize int64) *FilesAPI {
	return &FilesAPI{client: client, baseURL: baseURL, maxPlaintext: maxFileSize}
}

// Upload stores ciphertext with its plaintext metadata and returns the created file.
func (f *FilesAPI) Upload(ctx context.Context, in UploadRequest) (*FileMetadata, error) {
	req, err := transport.NewMultipartRequest(http.MethodPost, f.url("files/upload"),
		[]transport.FormField{
			{Name: "name", Value: in.Name},
			{Name: "mime_type", Value: in.MIMEType},
			{Name: "size", Value: strconv.FormatInt(in.Size, 10)},
			{Name: "iv", Value: in.IV},
		},
		transport.FormFile{Field: "file", FileName: in.Name, Content: in.Ciphertext},
	)
	if err != nil {
		return nil, err
	}
	req.Authenticated = true

	var resp filesDTO.FileResponse
	if err := f.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return mapFile(resp)
}

// Metadata returns the metadata of a file the caller owns or was shared with.
func (f *FilesAPI) Metadata(ctx context.Context, fileID uuid.UUID) (*FileMetadata, error) {
	var resp filesDTO.FileResponse
	if err := f.client.DoJSON(ctx, f.get("files/"+fileID.String()+"/download?metadata=true"), &resp); err != nil {
		return nil, err
	}
	return mapFile(resp)
}

// Download returns the ciphertext of a file.
func (f *FilesAPI) Download(ctx context.Context, fileID uuid.UUID) ([]byte, error) {
	return f.client.DoBytes(ctx, f.get("files/"+fileID.String()+"/download"), f.maxCiphertext())
}

// Delete removes a file the caller owns.
func (f *FilesAPI) Delete(ctx context.Context, fileID uuid.UUID) error {
	req := &transport.Request{Method: http.MethodDelete, URL: f.url("files/" + fileID.String()), Authenticated: true}
	return f.client.DoJSON(ctx, req, nil)
}

// Share grants the user with email read access to a file.
func (f *FilesAPI) Share(ctx context.Context, fileID uuid.UUID, email string) error {
	req, err := transport.NewJSONRequest(http.MethodPost, f.url("files/"+fileID.String()+"/share"),
		filesDTO.ShareRequest{Email: email})
	if err != nil {
		return err
	}
	req.Authenticated = true
	return f.client.DoJSON(ctx, req, nil)
}

// CreateShareLink creates a share link. A nil expiresIn creates a link that never expires.
func (f *FilesAPI) CreateShareLink(ctx context.Context, fileID uuid.UUID, expiresIn *time.Duration) (*ShareLink, error) {
	var body any
	if expiresIn != nil {
		seconds := int64(expiresIn.Seconds())
		body = filesDTO.CreateShareLinkRequest{ExpiresInSeconds: &seconds}
	}
	req, err := transport.NewJSONRequest(http.MethodPost, f.url("files/"+fileID.String()+"/create-share-link"), body)
	if err != nil {
		return nil, err
	}
	req.Authenticated = true

	var resp filesDTO.ShareLinkResponse
	if err := f.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return mapShareLink(resp)
}

// SharedMetadata returns the metadata behind a share link.
func (f *FilesAPI) SharedMetadata(ctx context.Context, shareID uuid.UUID) (*SharedFileMetadata, error) {
	var resp filesDTO.SharedFileResponse
	if err := f.client.DoJSON(ctx, f.get("files/shared/"+shareID.String()+"?metadata=true"), &resp); err != nil {
		return nil, err
	}
	return mapSharedFile(resp)
}

// SharedDownload returns the ciphertext behind a share link.
func (f *FilesAPI) SharedDownload(ctx context.Context, shareID uuid.UUID) ([]byte, error) {
	return f.client.DoBytes(ctx, f.get("files/shared/"+shareID.String()), f.maxCiphertext())
}

// List returns the caller's files.
func (f *FilesAPI) List(ctx context.Context, offset, limit int) ([]*FileMetadata, error) {
	path := "files?offset=" + strconv.Itoa(offset) + "&limit=" + strconv.Itoa(limit)

	var resp filesDTO.ListFilesResponse
	if err := f.client.DoJSON(ctx, f.get(path), &resp); err != nil {
		return nil, err
	}
	return mapFiles(resp)
}

// SharedWithMe returns the files other users shared with the caller.
func (f *FilesAPI) SharedWithMe(ctx context.Context, offset, limit int) ([]*FileMetadata, error) {
	path := "files/shared-with-me?offset=" + strconv.Itoa(offset) + "&limit=" + strconv.Itoa(limit)

	var resp filesDTO.ListFilesResponse
	if err := f.client.DoJSON(ctx, f.get(path), &resp); err != nil {
		return nil, err
	}
	return mapFiles(resp)
}

func (f *FilesAPI) get(path string) *transport.Request {
	return &transport.Request{Method: http.MethodGet, URL: f.url(path), Authenticated: true}
}

func (f *FilesAPI) url(path string) string {
	return transport.JoinURL(f.baseURL, path)
}

func (f *FilesAPI) maxCiphertext() int64 {
	return cryptoDomain.CiphertextSize(f.maxPlaintext)
}
