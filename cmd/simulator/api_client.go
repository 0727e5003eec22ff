package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type TodoPage struct {
	Content       []Todo `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
}

// Register creates an account and returns its id
func (c *APIClient) Register(username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.do(http.MethodPost, "/users/register", body, "")
	if err != nil {
		return "", fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusCreated); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.ID, nil
}

// Login exchanges credentials for a token pair
func (c *APIClient) Login(username, password string) (*Tokens, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	return c.tokens("/users/login", body)
}

// Refresh rotates a token pair
func (c *APIClient) Refresh(current *Tokens) (*Tokens, error) {
	return c.tokens("/users/refresh-token", current)
}

func (c *APIClient) tokens(path string, body any) (*Tokens, error) {
	resp, err := c.do(http.MethodPost, path, body, "")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var tokens Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &tokens, nil
}

// CreateTodo adds a todo for the token's owner
func (c *APIClient) CreateTodo(token, title, description string) (*Todo, error) {
	body := map[string]string{
		"title":       title,
		"description": description,
	}

	resp, err := c.do(http.MethodPost, "/todos", body, token)
	if err != nil {
		return nil, fmt.Errorf("create todo request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	var todo Todo
	if err := json.NewDecoder(resp.Body).Decode(&todo); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &todo, nil
}

// CompleteTodo marks a todo as done
func (c *APIClient) CompleteTodo(token, id string) error {
	resp, err := c.do(http.MethodPut, "/todos/"+id, map[string]bool{"completed": true}, token)
	if err != nil {
		return fmt.Errorf("update todo request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return nil
}

// ListTodos fetches one page of the owner's todos
func (c *APIClient) ListTodos(token string, page, size int) (*TodoPage, error) {
	resp, err := c.do(http.MethodGet, fmt.Sprintf("/todos?page=%d&size=%d", page, size), nil, token)
	if err != nil {
		return nil, fmt.Errorf("list todos request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	var result TodoPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// DeleteAccount removes the token's owner and everything they own
func (c *APIClient) DeleteAccount(token string) error {
	resp, err := c.do(http.MethodDelete, "/users", nil, token)
	if err != nil {
		return fmt.Errorf("delete account request failed: %w", err)
	}
	defer resp.Body.Close()

	return expect(resp, http.StatusOK)
}

// WebSocketURL returns the event stream address for token
func (c *APIClient) WebSocketURL(token string) string {
	url := strings.Replace(c.baseURL, "http", "ws", 1)
	return url + "/ws?token=" + token
}

func (c *APIClient) do(method, path string, body any, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func expect(resp *http.Response, status int) error {
	if resp.StatusCode == status {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
}
