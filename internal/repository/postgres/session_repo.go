package postgres

import (
	"context"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "refresh_token = ?", refreshToken).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	result := r.db.WithContext(ctx).
		Model(session).
		Select("access_token", "refresh_token", "expires_at", "updated_at").
		Updates(session)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Session{}, "expires_at < ?", before)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}
