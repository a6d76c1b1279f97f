package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/pursuit/pkg/catalog"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/history"
	"mercator-hq/pursuit/pkg/telemetry/logging"
)

// Error types returned in API error bodies.
const (
	ErrorTypeInvalidRequest = "invalid_request"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeTooLarge       = "request_too_large"
	ErrorTypeUnauthorized   = "unauthorized"
	ErrorTypeRateLimited    = "rate_limited"
	ErrorTypeInternal       = "internal_error"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request. Compile errors fill Kind, Path,
// Key and Suggestion.
type ErrorDetail struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	Path       string `json:"path,omitempty"`
	Key        string `json:"key,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// requestError is a client error detected while decoding a request.
type requestError struct {
	status  int
	kind    string
	message string
	err     error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *requestError) Unwrap() error { return e.err }

// toErrorResponse maps err to a status code and response body.
func toErrorResponse(err error) (int, ErrorResponse) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Type:       ErrorTypeInvalidRequest,
			Message:    compileErr.Error(),
			Kind:       string(compileErr.Kind),
			Path:       compileErr.Path,
			Key:        compileErr.Key,
			Suggestion: compileErr.Suggestion,
		}}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Type:    ErrorTypeTooLarge,
			Message: "request body too large",
		}}
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status, ErrorResponse{Error: ErrorDetail{
			Type:    reqErr.kind,
			Message: reqErr.Error(),
		}}
	}

	if errors.Is(err, history.ErrInvalidFilter) {
		return http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Type:    ErrorTypeInvalidRequest,
			Message: err.Error(),
		}}
	}

	if errors.Is(err, catalog.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{Error: ErrorDetail{
			Type:    ErrorTypeNotFound,
			Message: err.Error(),
		}}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Type:    ErrorTypeInternal,
		Message: "An internal error occurred. Please try again later.",
	}}
}

// writeError writes err as a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, resp := toErrorResponse(err)
	resp.Error.RequestID = logging.GetRequestID(r.Context())

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		logger.DebugContext(r.Context(), "request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
