// Package response writes JSON bodies and maps service errors onto HTTP
// statuses. Error bodies always have the shape {"errors":[{"message":...}]}.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
)

const internalMessage = "Internal server error"

type ErrorItem struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// ValidationError lists every rejected request field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid request"
	}
	return e.Messages[0]
}

// Add records msg for field.
func (e *ValidationError) Add(field, msg string) {
	e.Messages = append(e.Messages, field+" "+msg)
}

// Err returns e when a field was rejected and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func Messages(w http.ResponseWriter, status int, messages ...string) {
	body := ErrorResponse{Errors: make([]ErrorItem, 0, len(messages))}
	for _, m := range messages {
		body.Errors = append(body.Errors, ErrorItem{Message: m})
	}
	JSON(w, status, body)
}

// Status maps an error onto the HTTP status it is answered with.
func Status(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsUnauthorized(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error answers err. Domain and validation messages are shown as-is;
// anything else is logged and replaced by a generic message.
func Error(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		Messages(w, http.StatusBadRequest, verr.Messages...)
		return
	}

	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Messages(w, status, internalMessage)
		return
	}
	Messages(w, status, err.Error())
}
