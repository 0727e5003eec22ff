package domain

import (
	"time"

	"github.com/google/uuid"
)

type Todo struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description" gorm:"not null"`
	Completed     bool      `json:"completed" gorm:"not null;default:false"`
	OwnerUsername string    `json:"-" gorm:"column:owner_username;index;not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TodoPatch carries a partial update; nil fields are left unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Page is one zero-based slice of a larger result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, page, size int, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
