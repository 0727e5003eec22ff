// Package memory provides in-process repositories. Records are copied on the
// way in and out so callers never share state with the store.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
)

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(),
		Todo:    NewTodoRepository(),
		Session: NewSessionRepository(),
	}
}

type UserRepository struct {
	mu         sync.RWMutex
	byUsername map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byUsername: make(map[string]*domain.User)}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.OwnedItemIDs = slices.Clone(u.OwnedItemIDs)
	if c.OwnedItemIDs == nil {
		c.OwnedItemIDs = []uuid.UUID{}
	}
	return &c
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return repository.ErrDuplicate
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.byUsername[user.Username] = copyUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byUsername {
		if u.ID == id {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byUsername[user.Username]
	if !ok || existing.ID != user.ID {
		return repository.ErrNotFound
	}
	r.byUsername[user.Username] = copyUser(user)
	return nil
}

func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[username]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byUsername, username)
	return nil
}

type TodoRepository struct {
	mu    sync.RWMutex
	todos map[uuid.UUID]*domain.Todo
	order []uuid.UUID
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{todos: make(map[uuid.UUID]*domain.Todo)}
}

func copyTodo(t *domain.Todo) *domain.Todo {
	c := *t
	return &c
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	if _, ok := r.todos[todo.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.todos[todo.ID] = copyTodo(todo)
	r.order = append(r.order, todo.ID)
	return nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTodo(t), nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[todo.ID]; !ok {
		return repository.ErrNotFound
	}
	todo.UpdatedAt = time.Now()
	r.todos[todo.ID] = copyTodo(todo)
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.todos, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Todo, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.Todo
	for _, id := range r.order {
		if t := r.todos[id]; t.OwnerUsername == owner {
			owned = append(owned, t)
		}
	}

	total := int64(len(owned))
	if offset >= len(owned) {
		return []*domain.Todo{}, total, nil
	}
	end := min(offset+limit, len(owned))

	page := make([]*domain.Todo, 0, end-offset)
	for _, t := range owned[offset:end] {
		page = append(page, copyTodo(t))
	}
	return page, total, nil
}

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uuid.UUID]*domain.Session)}
}

func copySession(s *domain.Session) *domain.Session {
	c := *s
	return &c
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	for _, s := range r.sessions {
		if s.RefreshToken == session.RefreshToken {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.RefreshToken == refreshToken {
			return copySession(s), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SessionRepository) Update(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many session records are stored.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
