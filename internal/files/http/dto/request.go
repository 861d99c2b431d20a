// Package dto provides data transfer objects for the file endpoints.
package dto

import (
	"mime/multipart"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/filevault/internal/validation"
)

// UploadRequest is the multipart form of an encrypted upload. Name, MIMEType and Size
// describe the plaintext; File carries the ciphertext.
type UploadRequest struct {
	Name     string                `form:"name"`
	MIMEType string                `form:"mime_type"`
	Size     int64                 `form:"size"`
	IV       string                `form:"iv"`
	File     *multipart.FileHeader `form:"file"`
}

// Validate checks that every form part is present.
func (r *UploadRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, customValidation.FileName),
		validation.Field(&r.MIMEType, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Size, validation.Min(int64(0))),
		validation.Field(&r.IV, validation.Required, customValidation.Base64),
		validation.Field(&r.File, validation.NotNil),
	)
}

// ShareRequest names the user a file is shared with.
type ShareRequest struct {
	Email string `json:"email"`
}

// Validate checks if the share request is valid.
func (r *ShareRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
	)
}

// CreateShareLinkRequest contains the optional lifetime of a share link. A missing value
// creates a link that never expires.
type CreateShareLinkRequest struct {
	ExpiresInSeconds *int64 `json:"expires_in_seconds,omitempty"`
}

// Validate checks that a given lifetime is positive.
func (r *CreateShareLinkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ExpiresInSeconds, validation.Min(int64(1))),
	)
}
