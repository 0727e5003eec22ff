// Package redis stores refresh-session records in Redis. Each record lives
// under its ID with a secondary key mapping the current refresh token to that
// ID; both carry a TTL so expired sessions are collected by Redis itself.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ExpiredRetention keeps a record readable for a while past its expiry so a
// late refresh is answered "expired" rather than "not found".
const ExpiredRetention = domain.ExpiredSessionRetention

type SessionRepository struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewSessionRepository(rdb redis.UniversalClient, prefix string) *SessionRepository {
	if prefix == "" {
		prefix = "todo"
	}
	return &SessionRepository{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *SessionRepository) sessionKey(id uuid.UUID) string {
	return r.prefix + ":session:" + id.String()
}

func (r *SessionRepository) refreshKey(token string) string {
	return r.prefix + ":refresh:" + token
}

func (r *SessionRepository) ttl(s *domain.Session) time.Duration {
	ttl := s.ExpiresAt.Sub(r.now()) + ExpiredRetention
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := r.now()
	session.CreatedAt = now
	session.UpdatedAt = now

	blob, err := json.Marshal(record(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := r.ttl(session)

	ok, err := r.rdb.SetNX(ctx, r.refreshKey(session.RefreshToken), session.ID.String(), ttl).Result()
	if err != nil {
		return fmt.Errorf("index refresh token: %w", err)
	}
	if !ok {
		return repository.ErrDuplicate
	}
	if err := r.rdb.Set(ctx, r.sessionKey(session.ID), blob, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	id, err := r.rdb.Get(ctx, r.refreshKey(refreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh index: %w", err)
	}
	session, err := r.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// The index can briefly outlive a rotation that changed the token.
	if session.RefreshToken != refreshToken {
		return nil, repository.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	blob, err := r.rdb.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec.session(), nil
}

// Update swaps the stored pair for session's in one MULTI/EXEC so the old
// refresh token stops resolving at the same moment the new one starts.
func (r *SessionRepository) Update(ctx context.Context, session *domain.Session) error {
	current, err := r.get(ctx, session.ID)
	if err != nil {
		return err
	}
	session.CreatedAt = current.CreatedAt
	session.UpdatedAt = r.now()

	blob, err := json.Marshal(record(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := r.ttl(session)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if current.RefreshToken != session.RefreshToken {
			pipe.Del(ctx, r.refreshKey(current.RefreshToken))
		}
		pipe.Set(ctx, r.sessionKey(session.ID), blob, ttl)
		pipe.Set(ctx, r.refreshKey(session.RefreshToken), session.ID.String(), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: key TTLs already expire records.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type sessionRecord struct {
	ID            string    `json:"id"`
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	OwnerUsername string    `json:"ownerUsername"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func record(s *domain.Session) sessionRecord {
	return sessionRecord{
		ID:            s.ID.String(),
		AccessToken:   s.AccessToken,
		RefreshToken:  s.RefreshToken,
		OwnerUsername: s.OwnerUsername,
		ExpiresAt:     s.ExpiresAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (rec sessionRecord) session() *domain.Session {
	id, _ := uuid.Parse(rec.ID)
	return &domain.Session{
		ID:            id,
		AccessToken:   rec.AccessToken,
		RefreshToken:  rec.RefreshToken,
		OwnerUsername: rec.OwnerUsername,
		ExpiresAt:     rec.ExpiresAt,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
