package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/google/uuid"
)

// Store-level errors. Implementations translate their driver's miss and
// unique-violation signals into these.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Update overwrites the whole record. There is no version check: the
	// last writer wins.
	Update(ctx context.Context, user *domain.User) error
	DeleteByUsername(ctx context.Context, username string) error
}

type TodoRepository interface {
	// Create assigns an ID when the todo has none.
	Create(ctx context.Context, todo *domain.Todo) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	// Delete returns ErrNotFound when no row was removed.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByOwner returns one page ordered by creation time and the total
	// number of todos the owner has.
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Todo, int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	// Update replaces the token pair and expiry of the record with the same ID.
	Update(ctx context.Context, session *domain.Session) error
	// DeleteExpired removes records that expired before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Repositories struct {
	User    UserRepository
	Todo    TodoRepository
	Session SessionRepository
}
