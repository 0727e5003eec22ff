package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTodoService_CreateAndGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "a@x.com", "pw1")
	other := h.signup(t, "b@x.com", "pw2")

	created, err := h.svc.Todo.Create(ctx, owner.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, []uuid.UUID{created.ID}, []uuid.UUID(h.user(t, "a@x.com").OwnedItemIDs))

	got, err := h.svc.Todo.Get(ctx, owner.AccessToken, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "d", got.Description)
	assert.False(t, got.Completed)
	assert.Equal(t, "a@x.com", got.OwnerUsername)

	_, err = h.svc.Todo.Get(ctx, other.AccessToken, created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound, "foreign todos look absent")

	_, err = h.svc.Todo.Get(ctx, owner.AccessToken, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.Equal(t, []domain.TodoEventType{domain.TodoEventCreated}, h.events.Types("a@x.com"))
}

func TestTodoService_Create_CompletedFlag(t *testing.T) {
	h := newHarness(t)
	pair := h.signup(t, "a@x.com", "pw1")

	todo, err := h.svc.Todo.Create(context.Background(), pair.AccessToken, service.CreateTodoInput{Title: "t", Description: "d", Completed: true})
	require.NoError(t, err)
	assert.True(t, todo.Completed)
}

func TestTodoService_Create_UnknownUser(t *testing.T) {
	h := newHarness(t)
	token, err := h.codec.Issue("ghost@x.com", h.clock.Now())
	require.NoError(t, err)

	_, err = h.svc.Todo.Create(context.Background(), token, service.CreateTodoInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, total, err := h.repos.Todo.ListByOwner(context.Background(), "ghost@x.com", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTodoService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "a@x.com", "pw1")
	other := h.signup(t, "b@x.com", "pw2")
	todo, err := h.svc.Todo.Create(ctx, owner.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		id      uuid.UUID
		patch   domain.TodoPatch
		wantErr error
		want    domain.Todo
	}{
		{
			name:  "completed only",
			token: owner.AccessToken,
			id:    todo.ID,
			patch: domain.TodoPatch{Completed: ptr(true)},
			want:  domain.Todo{Title: "t", Description: "d", Completed: true},
		},
		{
			name:  "title only",
			token: owner.AccessToken,
			id:    todo.ID,
			patch: domain.TodoPatch{Title: ptr("t2")},
			want:  domain.Todo{Title: "t2", Description: "d", Completed: true},
		},
		{
			name:  "all fields",
			token: owner.AccessToken,
			id:    todo.ID,
			patch: domain.TodoPatch{Title: ptr("t3"), Description: ptr("d3"), Completed: ptr(false)},
			want:  domain.Todo{Title: "t3", Description: "d3", Completed: false},
		},
		{
			name:    "another owner",
			token:   other.AccessToken,
			id:      todo.ID,
			patch:   domain.TodoPatch{Title: ptr("hijack")},
			wantErr: domain.ErrTaskNotFound,
			want:    domain.Todo{Title: "t3", Description: "d3", Completed: false},
		},
		{
			name:    "missing todo",
			token:   owner.AccessToken,
			id:      uuid.New(),
			patch:   domain.TodoPatch{Title: ptr("x")},
			wantErr: domain.ErrTaskNotFound,
			want:    domain.Todo{Title: "t3", Description: "d3", Completed: false},
		},
	}

	// Cases run in order; each builds on the previous state.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Todo.Update(ctx, tt.token, tt.id, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			stored, err := h.repos.Todo.GetByID(ctx, todo.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Title, stored.Title)
			assert.Equal(t, tt.want.Description, stored.Description)
			assert.Equal(t, tt.want.Completed, stored.Completed)
		})
	}
}

func TestTodoService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "a@x.com", "pw1")
	other := h.signup(t, "b@x.com", "pw2")
	todo, err := h.svc.Todo.Create(ctx, owner.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	err = h.svc.Todo.Delete(ctx, other.AccessToken, todo.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.NoError(t, h.svc.Todo.Delete(ctx, owner.AccessToken, todo.ID))
	assert.Empty(t, h.user(t, "a@x.com").OwnedItemIDs)
	_, err = h.repos.Todo.GetByID(ctx, todo.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = h.svc.Todo.Delete(ctx, owner.AccessToken, todo.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.Equal(t, []domain.TodoEventType{domain.TodoEventCreated, domain.TodoEventDeleted}, h.events.Types("a@x.com"))
}

func TestTodoService_Delete_UnindexesTodoAlreadyGone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")
	todo, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	require.NoError(t, h.repos.Todo.Delete(ctx, todo.ID))

	err = h.svc.Todo.Delete(ctx, pair.AccessToken, todo.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.False(t, h.user(t, "a@x.com").OwnsItem(todo.ID), "index is cleaned even when the todo was missing")
}

func TestTodoService_Delete_StoreFailureIsNotDomainError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")
	todo, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	h.todos.failDelete[todo.ID] = errStoreDown

	err = h.svc.Todo.Delete(ctx, pair.AccessToken, todo.ID)
	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	// The index was written first, so the todo is now an unreferenced orphan.
	assert.False(t, h.user(t, "a@x.com").OwnsItem(todo.ID))
	_, err = h.repos.Todo.GetByID(ctx, todo.ID)
	assert.NoError(t, err)
}

func TestTodoService_List(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "a@x.com", "pw1")
	other := h.signup(t, "b@x.com", "pw2")

	for i := range 3 {
		_, err := h.svc.Todo.Create(ctx, owner.AccessToken, service.CreateTodoInput{Title: fmt.Sprintf("t%d", i), Description: "d"})
		require.NoError(t, err)
	}
	_, err := h.svc.Todo.Create(ctx, other.AccessToken, service.CreateTodoInput{Title: "theirs", Description: "d"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		page   int
		size   int
		titles []string
	}{
		{name: "first page", page: 0, size: 2, titles: []string{"t0", "t1"}},
		{name: "last page", page: 1, size: 2, titles: []string{"t2"}},
		{name: "past the end", page: 5, size: 2, titles: []string{}},
		{name: "everything", page: 0, size: 10, titles: []string{"t0", "t1", "t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.Todo.List(ctx, owner.AccessToken, tt.page, tt.size)
			require.NoError(t, err)
			assert.EqualValues(t, 3, page.TotalElements)
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, tt.size, page.Size)
			assert.Equal(t, (3+tt.size-1)/tt.size, page.TotalPages)

			titles := []string{}
			for _, todo := range page.Content {
				titles = append(titles, todo.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestTodoService_RejectsUnreadableToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Todo.Create(ctx, "garbage", service.CreateTodoInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
	_, err = h.svc.Todo.List(ctx, "garbage", 0, 10)
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
	_, err = h.svc.Todo.Get(ctx, "garbage", uuid.New())
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

func TestTodoService_List_RejectsBadPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "a@x.com", "pw1")
	_, err := h.svc.Todo.Create(ctx, owner.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		page    int
		size    int
		wantErr error
	}{
		{name: "negative page", page: -1, size: 10, wantErr: domain.ErrInvalidPage},
		{name: "zero size", page: 0, size: 0, wantErr: domain.ErrInvalidPageSize},
		{name: "offset overflows to negative", page: math.MaxInt, size: 10, wantErr: domain.ErrPageOutOfRange},
		{name: "offset wraps to zero", page: 1 << 62, size: 4, wantErr: domain.ErrPageOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.Todo.List(ctx, owner.AccessToken, tt.page, tt.size)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, page)
		})
	}

	page, err := h.svc.Todo.List(ctx, owner.AccessToken, math.MaxInt/10, 10)
	require.NoError(t, err, "largest representable offset is accepted")
	assert.Empty(t, page.Content)
}
