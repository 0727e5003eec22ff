package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user directly and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		OwnedItemIDs: []uuid.UUID{},
	}
	user.Touch(time.Now())

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// TokenResponse matches the login and refresh response body
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate registers and logs the user in through the API
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (string, TokenResponse) {
	t.Helper()

	reqBody := map[string]string{
		"username": b.username,
		"password": b.password,
	}

	resp := DoJSON(t, http.MethodPost, ts.APIURL("/users/register"), reqBody, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: unexpected status code: %d", resp.StatusCode)
	}
	userID := resp.Header.Get("User-Id")

	resp = DoJSON(t, http.MethodPost, ts.APIURL("/users/login"), reqBody, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return userID, tokens
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// DoJSON sends an optionally authenticated JSON request
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}
