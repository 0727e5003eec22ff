package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
)

const (
	msgNotBlank = "must not be blank"
	msgEmail    = "must be a well-formed email address"
	msgBadBody  = "Malformed request body"
	maxBodySize = 1 << 20
)

// decode reads a JSON body into v. Decoding failures are reported as a
// validation error on the body.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &response.ValidationError{Messages: []string{msgBadBody}}
	}
	return nil
}

func notBlank(v *response.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, msgNotBlank)
	}
}

func email(v *response.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, msgNotBlank)
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		v.Add(field, msgEmail)
	}
}
