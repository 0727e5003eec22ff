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
)

// SessionManager issues access/refresh pairs and rotates refresh chains.
type SessionManager struct {
	sessions   repository.SessionRepository
	users      repository.UserRepository
	codec      *auth.TokenCodec
	refreshTTL time.Duration
	now        func() time.Time
	log        logging.Logger
}

func NewSessionManager(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	codec *auth.TokenCodec,
	refreshTTL time.Duration,
	now func() time.Time,
	log logging.Logger,
) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		sessions:   sessions,
		users:      users,
		codec:      codec,
		refreshTTL: refreshTTL,
		now:        now,
		log:        log,
	}
}

// StartSession mints a pair for username and persists a new refresh record.
func (m *SessionManager) StartSession(ctx context.Context, username string, freshnessMark time.Time) (*domain.TokenPair, error) {
	accessToken, err := m.codec.Issue(username, freshnessMark)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	session := &domain.Session{
		AccessToken:   accessToken,
		RefreshToken:  auth.NewRefreshToken(),
		OwnerUsername: username,
		ExpiresAt:     m.now().Add(m.refreshTTL),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

// RotateSession exchanges the last issued pair of a session for a new one.
// The old refresh token stops resolving once the record is rewritten.
func (m *SessionManager) RotateSession(ctx context.Context, accessToken, refreshToken string) (*domain.TokenPair, error) {
	session, err := m.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := m.now()
	if session.ExpiredAt(now) {
		return nil, domain.ErrRefreshTokenExpired
	}
	if session.AccessToken != accessToken {
		m.log.Warn(ctx, "refresh presented with a stale access token", "session_id", session.ID)
		return nil, domain.ErrAccessTokenMismatch
	}

	user, err := m.users.GetByUsername(ctx, session.OwnerUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load session owner: %w", err)
	}

	subject, err := m.codec.Subject(accessToken)
	if err != nil {
		return nil, err
	}
	if subject != user.Username {
		return nil, domain.ErrUserNotFound
	}

	newAccess, err := m.codec.Issue(user.Username, user.FreshnessMark())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	session.AccessToken = newAccess
	session.RefreshToken = auth.NewRefreshToken()
	session.ExpiresAt = now.Add(m.refreshTTL)
	if err := m.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

// SweepExpired drops refresh records that expired more than
// domain.ExpiredSessionRetention ago.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now().Add(-domain.ExpiredSessionRetention))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return n, nil
}
