package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/ziyoonee/gochagetcha-sub000/pkg/errors"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/logger"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/validator"
)

// ErrorBody is the JSON error payload returned by all endpoints.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails the headers are already sent, so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a standardized error response based on the error type.
// It prefers the request-scoped logger from context over the fallback logger
// and logs internal server errors.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, ErrorBody{
			Error:     appErr.Message,
			Code:      appErr.Code,
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "NOT_FOUND"
		message = "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = "INVALID_INPUT"
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorBody{Error: message, Code: code, RequestID: requestID})
}

// WriteValidationError writes a standardized validation error response with
// field-level messages when the error comes from the validator package.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorBody{
			Error:  "request validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: valErr.Fields(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: "INVALID_INPUT"})
}
