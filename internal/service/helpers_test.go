package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository/memory"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 24 * time.Hour
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]domain.TodoEvent
	closed []string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]domain.TodoEvent)}
}

func (p *recordingPublisher) Publish(username string, event domain.TodoEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[username] = append(p.events[username], event)
}

func (p *recordingPublisher) CloseUser(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, username)
}

func (p *recordingPublisher) Types(username string) []domain.TodoEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []domain.TodoEventType
	for _, e := range p.events[username] {
		types = append(types, e.Type)
	}
	return types
}

// failingTodos wraps a todo store and fails Delete for the listed ids.
type failingTodos struct {
	repository.TodoRepository
	failDelete map[uuid.UUID]error
}

func (f *failingTodos) Delete(ctx context.Context, id uuid.UUID) error {
	if err, ok := f.failDelete[id]; ok {
		return err
	}
	return f.TodoRepository.Delete(ctx, id)
}

var errStoreDown = errors.New("store unavailable")

type harness struct {
	clock    *clock
	repos    *repository.Repositories
	sessions *memory.SessionRepository
	todos    *failingTodos
	codec    *auth.TokenCodec
	events   *recordingPublisher
	svc      *service.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessions := memory.NewSessionRepository()
	todos := &failingTodos{TodoRepository: memory.NewTodoRepository(), failDelete: map[uuid.UUID]error{}}
	repos := &repository.Repositories{
		User:    memory.NewUserRepository(),
		Todo:    todos,
		Session: sessions,
	}

	codec, err := auth.NewTokenCodec(signingKey, accessTTL, clk.Now)
	require.NoError(t, err)

	events := newRecordingPublisher()
	svc := service.NewServices(service.Deps{
		Repos:      repos,
		Codec:      codec,
		Hasher:     auth.NewBcrypt(bcrypt.MinCost),
		Events:     events,
		RefreshTTL: refreshTTL,
		Now:        clk.Now,
		Log:        logging.Discard(),
	})

	return &harness{
		clock:    clk,
		repos:    repos,
		sessions: sessions,
		todos:    todos,
		codec:    codec,
		events:   events,
		svc:      svc,
	}
}

func (h *harness) register(t *testing.T, username, password string) uuid.UUID {
	t.Helper()
	id, err := h.svc.Identity.Register(context.Background(), service.RegisterInput{Username: username, Password: password})
	require.NoError(t, err)
	return id
}

func (h *harness) login(t *testing.T, username, password string) *domain.TokenPair {
	t.Helper()
	pair, err := h.svc.Identity.Login(context.Background(), service.LoginInput{Username: username, Password: password})
	require.NoError(t, err)
	return pair
}

func (h *harness) signup(t *testing.T, username, password string) *domain.TokenPair {
	t.Helper()
	h.register(t, username, password)
	return h.login(t, username, password)
}

func (h *harness) user(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := h.repos.User.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return user
}
