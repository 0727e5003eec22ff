package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
)

type IdentityService struct {
	users    repository.UserRepository
	todos    repository.TodoRepository
	sessions *SessionManager
	codec    *auth.TokenCodec
	hasher   auth.PasswordHasher
	events   EventPublisher
	now      func() time.Time
	log      logging.Logger
}

func NewIdentityService(
	users repository.UserRepository,
	todos repository.TodoRepository,
	sessions *SessionManager,
	codec *auth.TokenCodec,
	hasher auth.PasswordHasher,
	events EventPublisher,
	now func() time.Time,
	log logging.Logger,
) *IdentityService {
	if events == nil {
		events = NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &IdentityService{
		users:    users,
		todos:    todos,
		sessions: sessions,
		codec:    codec,
		hasher:   hasher,
		events:   events,
		now:      now,
		log:      log,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type ChangePasswordInput struct {
	Username    string
	OldPassword string
	NewPassword string
}

func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (uuid.UUID, error) {
	_, err := s.users.GetByUsername(ctx, input.Username)
	if err == nil {
		return uuid.Nil, domain.ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: digest,
		OwnedItemIDs: []uuid.UUID{},
	}
	user.Touch(s.now())

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, domain.ErrUserExists
		}
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user.ID, nil
}

func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*domain.TokenPair, error) {
	user, err := s.getUser(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.log.Warn(ctx, "login rejected", "user_id", user.ID)
		return nil, domain.ErrBadCredentials
	}
	return s.sessions.StartSession(ctx, user.Username, user.FreshnessMark())
}

func (s *IdentityService) Refresh(ctx context.Context, accessToken, refreshToken string) (*domain.TokenPair, error) {
	return s.sessions.RotateSession(ctx, accessToken, refreshToken)
}

// ChangePassword replaces the credential and advances the freshness mark,
// which rejects every access token issued before the call. Refresh records
// are left alone and keep minting tokens with the new mark.
func (s *IdentityService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.getUser(ctx, input.Username)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(input.OldPassword, user.PasswordHash) {
		s.log.Warn(ctx, "password change rejected", "user_id", user.ID)
		return domain.ErrBadCredentials
	}

	digest, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = digest
	user.Touch(s.now())

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}

	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// DeleteAccount removes every owned todo and then the user. Todo deletion is
// one call per id with no rollback; an id already gone from the store is
// skipped, any other failure aborts before the user record is touched.
func (s *IdentityService) DeleteAccount(ctx context.Context, accessToken string) error {
	username, err := s.codec.Subject(accessToken)
	if err != nil {
		return err
	}
	user, err := s.getUser(ctx, username)
	if err != nil {
		return err
	}

	for _, id := range user.OwnedItemIDs {
		if err := s.todos.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("delete todo %s: %w", id, err)
		}
	}

	if err := s.users.DeleteByUsername(ctx, user.Username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.events.CloseUser(user.Username)
	s.log.Info(ctx, "account deleted", "user_id", user.ID, "todos", len(user.OwnedItemIDs))
	return nil
}

// Authenticate resolves the user behind an Authorization header value and
// checks the token's signature, expiry and freshness against that user.
func (s *IdentityService) Authenticate(ctx context.Context, header string) (*domain.User, string, error) {
	token, err := auth.ExtractBearer(header)
	if err != nil {
		return nil, "", err
	}
	user, err := s.ValidateAccessToken(ctx, token)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *IdentityService) ValidateAccessToken(ctx context.Context, token string) (*domain.User, error) {
	username, err := s.codec.Subject(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.codec.IsCurrentlyValid(token, user.Username, user.FreshnessMark()) {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func (s *IdentityService) getUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
