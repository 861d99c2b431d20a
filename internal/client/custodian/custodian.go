// Package custodian is the client of the key custodian service, which holds one
// encryption key per file and enforces who may read it.
package custodian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/client/transport"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	apperrors "github.com/allisson/filevault/internal/errors"
)

// ErrKeyNotFound is returned when the custodian has no key for a file.
var ErrKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "encryption key not found")

// maxKeyResponse bounds the key response body.
const maxKeyResponse = 4096

// keyPayload is the custodian wire format in both directions.
type keyPayload struct {
	EncryptionKey string `json:"encryption_key"` //nolint:gosec // wire field
}

// Client stores, retrieves and deletes file keys. Authorization is decided by the
// custodian; the client only attaches the access token.
type Client struct {
	transport *transport.Client
	baseURL   string
	engine    cryptoService.Engine
}

// NewClient creates a custodian client rooted at baseURL.
func NewClient(client *transport.Client, baseURL string, engine cryptoService.Engine) *Client {
	return &Client{transport: client, baseURL: baseURL, engine: engine}
}

// Store saves the key for fileID.
func (c *Client) Store(ctx context.Context, fileID uuid.UUID, key *cryptoDomain.Key) error {
	req, err := transport.NewJSONRequest(http.MethodPost, c.url(fileID), keyPayload{EncryptionKey: c.engine.SerializeKey(key)})
	if err != nil {
		return err
	}
	req.Authenticated = true
	defer cryptoDomain.Zero(req.Body)

	if err := c.transport.DoJSON(ctx, req, nil); err != nil {
		return apperrors.Wrapf(err, "failed to store key for file %s", fileID)
	}
	return nil
}

// Retrieve returns the key for fileID. A missing key yields ErrKeyNotFound; a refused
// read keeps its unauthorized or forbidden kind.
func (c *Client) Retrieve(ctx context.Context, fileID uuid.UUID) (*cryptoDomain.Key, error) {
	req := &transport.Request{Method: http.MethodGet, URL: c.url(fileID), Authenticated: true}

	body, err := c.transport.DoBytes(ctx, req, maxKeyResponse)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, apperrors.Wrapf(err, "failed to retrieve key for file %s", fileID)
	}
	defer cryptoDomain.Zero(body)

	var payload keyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode key response: %w", err)
	}
	return c.engine.DeserializeKey(payload.EncryptionKey)
}

// Delete removes the key for fileID. A key that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, fileID uuid.UUID) error {
	req := &transport.Request{Method: http.MethodDelete, URL: c.url(fileID), Authenticated: true}

	if err := c.transport.DoJSON(ctx, req, nil); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return apperrors.Wrapf(err, "failed to delete key for file %s", fileID)
	}
	return nil
}

func (c *Client) url(fileID uuid.UUID) string {
	return transport.JoinURL(c.baseURL, "keys/"+fileID.String())
}
