package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	verr := &response.ValidationError{}
	verr.Add("username", "must not be blank")
	verr.Add("password", "must not be blank")

	tests := []struct {
		name     string
		err      error
		status   int
		messages []string
	}{
		{name: "conflict", err: domain.ErrUserExists, status: http.StatusConflict, messages: []string{"User already exists"}},
		{name: "not found", err: domain.ErrTaskNotFound, status: http.StatusNotFound, messages: []string{"Task not found"}},
		{name: "unauthorized", err: domain.ErrBadCredentials, status: http.StatusUnauthorized, messages: []string{"Bad credentials"}},
		{name: "malformed token", err: domain.ErrTokenUnreadable, status: http.StatusUnauthorized, messages: []string{"Malformed token"}},
		{name: "wrapped domain error", err: fmt.Errorf("ctx: %w", domain.ErrUserNotFound), status: http.StatusNotFound, messages: []string{"ctx: User not found"}},
		{name: "invalid input", err: domain.ErrPageOutOfRange, status: http.StatusBadRequest, messages: []string{"page is out of range"}},
		{name: "validation", err: verr, status: http.StatusBadRequest, messages: []string{"username must not be blank", "password must not be blank"}},
		{name: "infra error hides detail", err: errors.New("dial tcp 10.0.0.1:5432: refused"), status: http.StatusInternalServerError, messages: []string{"Internal server error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			response.Error(rec, req, logging.Discard(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			var got []string
			for _, e := range body.Errors {
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.messages, got)
		})
	}
}

func TestValidationError_Err(t *testing.T) {
	verr := &response.ValidationError{}
	assert.NoError(t, verr.Err())

	verr.Add("title", "must not be blank")
	assert.EqualError(t, verr.Err(), "title must not be blank")
}
