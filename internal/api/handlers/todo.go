package handlers

import (
	"net/http"
	"strconv"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/middleware"
	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type TodoHandler struct {
	todos *service.TodoService
	log   logging.Logger
}

func NewTodoHandler(todos *service.TodoService, log logging.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, log: log}
}

type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (req CreateTodoRequest) validate() error {
	v := &response.ValidationError{}
	notBlank(v, "title", req.Title)
	notBlank(v, "description", req.Description)
	return v.Err()
}

type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type TodoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func toTodoResponse(t *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	token, _ := middleware.GetAccessToken(r.Context())
	todo, err := h.todos.Create(r.Context(), token, service.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, toTodoResponse(todo))
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		response.Error(w, r, h.log, domain.ErrTaskNotFound)
		return
	}

	var req UpdateTodoRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	token, _ := middleware.GetAccessToken(r.Context())
	todo, err := h.todos.Update(r.Context(), token, id, domain.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, toTodoResponse(todo))
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		response.Error(w, r, h.log, domain.ErrTaskNotFound)
		return
	}

	token, _ := middleware.GetAccessToken(r.Context())
	if err := h.todos.Delete(r.Context(), token, id); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		response.Error(w, r, h.log, domain.ErrTaskNotFound)
		return
	}

	token, _ := middleware.GetAccessToken(r.Context())
	todo, err := h.todos.Get(r.Context(), token, id)
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, toTodoResponse(todo))
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	token, _ := middleware.GetAccessToken(r.Context())
	result, err := h.todos.List(r.Context(), token, page, size)
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	content := make([]TodoResponse, 0, len(result.Content))
	for _, t := range result.Content {
		content = append(content, toTodoResponse(t))
	}
	response.JSON(w, http.StatusOK, domain.NewPage(content, result.Page, result.Size, result.TotalElements))
}

// todoID parses the {id} path parameter. A malformed id cannot name any
// todo, so callers answer it like a missing one.
func todoID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int, error) {
	v := &response.ValidationError{}
	page, size := 0, defaultPageSize

	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("page", "must be greater than or equal to 0")
		} else {
			page = n
		}
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			v.Add("size", "must be between 1 and 100")
		} else {
			size = n
		}
	}
	return page, size, v.Err()
}
