package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/filevault/internal/files/http/dto"
	filesUseCase "github.com/allisson/filevault/internal/files/usecase"
	"github.com/allisson/filevault/internal/httputil"
	customValidation "github.com/allisson/filevault/internal/validation"
)

// ShareLinkHandler creates and resolves share links.
type ShareLinkHandler struct {
	shareLinkUseCase filesUseCase.ShareLinkUseCase
	shareOrigin      string
	logger           *slog.Logger
}

// NewShareLinkHandler creates a share-link handler. shareOrigin is the public origin the
// link URLs are built from.
func NewShareLinkHandler(
	shareLinkUseCase filesUseCase.ShareLinkUseCase,
	shareOrigin string,
	logger *slog.Logger,
) *ShareLinkHandler {
	return &ShareLinkHandler{
		shareLinkUseCase: shareLinkUseCase,
		shareOrigin:      shareOrigin,
		logger:           logger,
	}
}

// CreateHandler issues a share link for a file owned by the caller.
// POST /api/files/:id/create-share-link - Returns 201 Created with {id, file_id, url, expires_at}.
func (h *ShareLinkHandler) CreateHandler(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.logger)
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var req dto.CreateShareLinkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var expiresIn *time.Duration
	if req.ExpiresInSeconds != nil {
		d := time.Duration(*req.ExpiresInSeconds) * time.Second
		expiresIn = &d
	}

	link, err := h.shareLinkUseCase.Create(c.Request.Context(), principal, fileID, expiresIn)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapShareLinkToResponse(link, h.shareOrigin))
}

// SharedHandler returns the metadata of a shared file or streams its ciphertext.
// GET /api/files/shared/:shareId?metadata=true|false - Requires read_shared.
//
// Unknown links return 404 and expired links return 410.
func (h *ShareLinkHandler) SharedHandler(c *gin.Context) {
	if _, ok := requirePrincipal(c, h.logger); !ok {
		return
	}
	linkID, ok := parseUUIDParam(c, "shareId", h.logger)
	if !ok {
		return
	}
	metadataOnly, ok := parseMetadataQuery(c, h.logger)
	if !ok {
		return
	}

	if metadataOnly {
		shared, err := h.shareLinkUseCase.Resolve(c.Request.Context(), linkID)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, dto.MapSharedFileToResponse(shared))
		return
	}

	shared, reader, err := h.shareLinkUseCase.OpenCiphertext(c.Request.Context(), linkID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	c.DataFromReader(http.StatusOK, shared.File.CiphertextSize, "application/octet-stream", reader, nil)
}
