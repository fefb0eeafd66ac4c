package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/baharkarakas/blog-backend/internal/apperr"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// exposeErrors adds the internal cause of server errors to responses.
// Only ever enabled outside production.
var exposeErrors atomic.Bool

func SetExposeErrors(on bool) { exposeErrors.Store(on) }

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteAppError renders err using its apperr kind. Errors outside the
// taxonomy are reported as a generic server error.
func WriteAppError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	details := e.Details
	if e.Kind == apperr.KindServer && exposeErrors.Load() && e.Err != nil {
		details = e.Err.Error()
	}
	WriteError(w, StatusFor(e.Kind), e.Kind.String(), e.Message, details)
}

func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a single JSON object from the body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return apperr.Validation("Content-Type must be application/json", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return ErrBodyTooLarge
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required", nil)
		default:
			return apperr.Validation("Invalid JSON body", nil)
		}
	}
	return nil
}

// ErrBodyTooLarge is rendered as 413 by WriteDecodeError.
var ErrBodyTooLarge = errors.New("request body too large")

func WriteDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
		return
	}
	WriteAppError(w, err)
}
