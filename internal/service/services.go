package service

import (
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
)

type Services struct {
	Sessions *SessionManager
	Identity *IdentityService
	Todo     *TodoService
}

type Deps struct {
	Repos      *repository.Repositories
	Codec      *auth.TokenCodec
	Hasher     auth.PasswordHasher
	Events     EventPublisher
	RefreshTTL time.Duration
	Now        func() time.Time
	Log        logging.Logger
}

func NewServices(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}

	sessions := NewSessionManager(d.Repos.Session, d.Repos.User, d.Codec, d.RefreshTTL, d.Now, d.Log.With("component", "sessions"))
	return &Services{
		Sessions: sessions,
		Identity: NewIdentityService(d.Repos.User, d.Repos.Todo, sessions, d.Codec, d.Hasher, d.Events, d.Now, d.Log.With("component", "identity")),
		Todo:     NewTodoService(d.Repos.User, d.Repos.Todo, d.Codec, d.Events, d.Log.With("component", "todos")),
	}
}
