package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/contact"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

type apiError struct {
	Error struct {
		Message string               `json:"message"`
		Type    string               `json:"type"`
		Fields  []contact.FieldError `json:"fields,omitempty"`
	} `json:"error"`
}

func errorResponse(msg, typ string) apiError {
	var e apiError
	e.Error.Message = msg
	e.Error.Type = typ
	return e
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, restorehq.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, restorehq.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, restorehq.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, restorehq.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, restorehq.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusConflict:
		return "conflict_error"
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// writeError maps err to a status and writes the error body. Internal
// errors are logged and never leak their message to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", restorehq.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, errorResponse("internal error", errorType(status)))
		return
	}

	body := errorResponse(err.Error(), errorType(status))
	var verr *contact.ValidationError
	if errors.As(err, &verr) {
		body.Error.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}

// jsonCT is a pre-allocated header value slice. Direct map assignment
// (w.Header()["Content-Type"] = jsonCT) avoids the []string{v} alloc
// that Header.Set creates on every call.
var jsonCT = []string{"application/json"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header()["Content-Type"] = jsonCT
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v. Malformed input
// wraps restorehq.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidBody(err)
	}
	return nil
}

func invalidBody(err error) error {
	return fmt.Errorf("invalid request body: %v: %w", err, restorehq.ErrValidation)
}
