package postgres

import (
	"context"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type todoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *todoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(todo).Error)
}

func (r *todoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).First(&todo, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &todo, nil
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	result := r.db.WithContext(ctx).
		Model(todo).
		Select("title", "description", "completed", "updated_at").
		Updates(todo)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *todoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Todo{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *todoRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Todo, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("owner_username = ?", owner).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	todos := []*domain.Todo{}
	err := r.db.WithContext(ctx).
		Where("owner_username = ?", owner).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&todos).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return todos, total, nil
}
