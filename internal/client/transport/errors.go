package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/allisson/filevault/internal/errors"
)

// StatusError is a non-2xx response. It unwraps to the domain error kind of its status,
// so callers branch with errors.Is(err, apperrors.ErrNotFound) and friends.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// errorBody mirrors the server ErrorResponse.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		kind:       kindForStatus(resp.StatusCode),
	}

	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(raw, &body) == nil {
		statusErr.Code = body.Error
		statusErr.Message = body.Message
	}
	return statusErr
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return apperrors.ErrInvalidInput
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusGone:
		return apperrors.ErrGone
	case http.StatusLocked:
		return apperrors.ErrLocked
	case http.StatusTooManyRequests:
		return apperrors.ErrTooManyRequests
	default:
		return nil
	}
}
