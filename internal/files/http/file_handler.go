// Package http provides the HTTP handlers for file storage, sharing and share links.
// Handlers never see plaintext or key material; they move ciphertext and metadata.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authHTTP "github.com/allisson/filevault/internal/auth/http"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	apperrors "github.com/allisson/filevault/internal/errors"
	"github.com/allisson/filevault/internal/files/http/dto"
	filesUseCase "github.com/allisson/filevault/internal/files/usecase"
	"github.com/allisson/filevault/internal/httputil"
	customValidation "github.com/allisson/filevault/internal/validation"
)

// multipartOverhead is the allowance for form fields and boundaries on top of the
// ciphertext itself.
const multipartOverhead = 1 << 20

// FileHandler handles upload, listing, download, deletion and user shares.
type FileHandler struct {
	fileUseCase filesUseCase.FileUseCase
	maxFileSize int64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler. maxFileSize is the plaintext limit.
func NewFileHandler(fileUseCase filesUseCase.FileUseCase, maxFileSize int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// UploadHandler stores a client-encrypted file.
// POST /api/files/upload - Requires upload. Returns 201 Created with the file metadata.
func (h *FileHandler) UploadHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	maxCiphertext := cryptoDomain.CiphertextSize(h.maxFileSize)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCiphertext+multipartOverhead)

	var req dto.UploadRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	part, err := req.File.Open()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to open file part: %w", err), h.logger)
		return
	}
	defer func() {
		_ = part.Close()
	}()

	// One byte past the limit is enough for the use case to reject the upload.
	ciphertext, err := io.ReadAll(io.LimitReader(part, maxCiphertext+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read file part: %w", err), h.logger)
		return
	}

	file, err := h.fileUseCase.Upload(c.Request.Context(), principal, &filesUseCase.UploadInput{
		Name:       req.Name,
		MIMEType:   req.MIMEType,
		Size:       req.Size,
		IV:         req.IV,
		Ciphertext: ciphertext,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapFileToResponse(file))
}

// ListHandler lists the caller's own files.
// GET /api/files?offset=0&limit=50
func (h *FileHandler) ListHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	files, err := h.fileUseCase.List(c.Request.Context(), principal, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFilesToListResponse(files))
}

// SharedWithMeHandler lists files other users shared with the caller.
// GET /api/files/shared-with-me?offset=0&limit=50
func (h *FileHandler) SharedWithMeHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	files, err := h.fileUseCase.ListSharedWithMe(c.Request.Context(), principal, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFilesToListResponse(files))
}

// DownloadHandler returns the file metadata or streams its ciphertext.
// GET /api/files/:id/download?metadata=true|false
//
// Files the caller may neither own nor read through a share are reported as 404.
func (h *FileHandler) DownloadHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "id", h.logger)
	if !ok {
		return
	}
	metadataOnly, ok := parseMetadataQuery(c, h.logger)
	if !ok {
		return
	}

	if metadataOnly {
		file, err := h.fileUseCase.GetMetadata(c.Request.Context(), principal, fileID)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.MapFileToResponse(file))
		return
	}

	file, reader, err := h.fileUseCase.OpenCiphertext(c.Request.Context(), principal, fileID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	c.DataFromReader(http.StatusOK, file.CiphertextSize, "application/octet-stream", reader, nil)
}

// DeleteHandler removes a file owned by the caller with its shares and links.
// DELETE /api/files/:id - Returns 204 No Content.
func (h *FileHandler) DeleteHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	if err := h.fileUseCase.Delete(c.Request.Context(), principal, fileID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ShareHandler shares a file owned by the caller with another user.
// POST /api/files/:id/share - Idempotent. Returns 204 No Content.
func (h *FileHandler) ShareHandler(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var req dto.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.fileUseCase.Share(c.Request.Context(), principal, fileID, req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FileHandler) principal(c *gin.Context) (*authDomain.Principal, bool) {
	return requirePrincipal(c, h.logger)
}

func requirePrincipal(c *gin.Context, logger *slog.Logger) (*authDomain.Principal, bool) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		return nil, false
	}
	return principal, true
}

func parseUUIDParam(c *gin.Context, name string, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid %s format: must be a valid UUID", name), logger)
		return uuid.Nil, false
	}
	return id, true
}

func parseMetadataQuery(c *gin.Context, logger *slog.Logger) (bool, bool) {
	metadataOnly, err := strconv.ParseBool(c.DefaultQuery("metadata", "false"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid metadata parameter: must be true or false"), logger)
		return false, false
	}
	return metadataOnly, true
}
