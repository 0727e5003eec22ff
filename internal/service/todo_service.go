package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
)

// TodoService keeps each user's owned-item index in step with the todo
// store. The two writes are not transactional: create stores the todo
// before indexing it, delete unindexes before removing it.
type TodoService struct {
	users  repository.UserRepository
	todos  repository.TodoRepository
	codec  *auth.TokenCodec
	events EventPublisher
	log    logging.Logger
}

func NewTodoService(
	users repository.UserRepository,
	todos repository.TodoRepository,
	codec *auth.TokenCodec,
	events EventPublisher,
	log logging.Logger,
) *TodoService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TodoService{
		users:  users,
		todos:  todos,
		codec:  codec,
		events: events,
		log:    log,
	}
}

type CreateTodoInput struct {
	Title       string
	Description string
	Completed   bool
}

// Create stores a new todo for the token's subject. The token is only
// decoded here; it must have been validated by the caller.
func (s *TodoService) Create(ctx context.Context, accessToken string, input CreateTodoInput) (*domain.Todo, error) {
	user, err := s.owner(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:            uuid.New(),
		Title:         input.Title,
		Description:   input.Description,
		Completed:     input.Completed,
		OwnerUsername: user.Username,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	user.AddItem(todo.ID)
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error(ctx, "todo stored but not indexed", "todo_id", todo.ID, "error", err)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("index todo: %w", err)
	}

	s.events.Publish(user.Username, domain.TodoEvent{Type: domain.TodoEventCreated, Todo: todo})
	return todo, nil
}

// Update applies the set fields of patch. A todo owned by someone else is
// reported as missing.
func (s *TodoService) Update(ctx context.Context, accessToken string, id uuid.UUID, patch domain.TodoPatch) (*domain.Todo, error) {
	username, err := s.codec.Subject(accessToken)
	if err != nil {
		return nil, err
	}
	todo, err := s.ownedTodo(ctx, username, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(todo)
	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}

	s.events.Publish(username, domain.TodoEvent{Type: domain.TodoEventUpdated, Todo: todo})
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, accessToken string, id uuid.UUID) error {
	user, err := s.owner(ctx, accessToken)
	if err != nil {
		return err
	}
	if !user.RemoveItem(id) {
		return domain.ErrTaskNotFound
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("unindex todo: %w", err)
	}

	if err := s.todos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "indexed todo was already gone", "todo_id", id)
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("delete todo: %w", err)
	}

	s.events.Publish(user.Username, domain.TodoEvent{
		Type: domain.TodoEventDeleted,
		Todo: &domain.Todo{ID: id, OwnerUsername: user.Username},
	})
	return nil
}

func (s *TodoService) Get(ctx context.Context, accessToken string, id uuid.UUID) (*domain.Todo, error) {
	username, err := s.codec.Subject(accessToken)
	if err != nil {
		return nil, err
	}
	return s.ownedTodo(ctx, username, id)
}

// List returns the zero-based page of the subject's todos.
func (s *TodoService) List(ctx context.Context, accessToken string, page, size int) (*domain.Page[*domain.Todo], error) {
	username, err := s.codec.Subject(accessToken)
	if err != nil {
		return nil, err
	}
	switch {
	case page < 0:
		return nil, domain.ErrInvalidPage
	case size < 1:
		return nil, domain.ErrInvalidPageSize
	case page > math.MaxInt/size:
		return nil, domain.ErrPageOutOfRange
	}

	todos, total, err := s.todos.ListByOwner(ctx, username, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return domain.NewPage(todos, page, size, total), nil
}

func (s *TodoService) owner(ctx context.Context, accessToken string) (*domain.User, error) {
	username, err := s.codec.Subject(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *TodoService) ownedTodo(ctx context.Context, username string, id uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("load todo: %w", err)
	}
	if todo.OwnerUsername != username {
		return nil, domain.ErrTaskNotFound
	}
	return todo, nil
}
