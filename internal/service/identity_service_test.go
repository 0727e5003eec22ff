package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_Register(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Identity.Register(ctx, service.RegisterInput{Username: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	user := h.user(t, "a@x.com")
	assert.Equal(t, id, user.ID)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.Empty(t, user.OwnedItemIDs)
	assert.True(t, h.clock.Now().Equal(user.LastModifiedAt))

	_, err = h.svc.Identity.Register(ctx, service.RegisterInput{Username: "a@x.com", Password: "other"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIdentityService_Login(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "correct password", username: "a@x.com", password: "pw1"},
		{name: "wrong password", username: "a@x.com", password: "pw2", wantErr: domain.ErrBadCredentials},
		{name: "empty password", username: "a@x.com", password: "", wantErr: domain.ErrBadCredentials},
		{name: "unknown user", username: "b@x.com", password: "pw1", wantErr: domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register(t, "a@x.com", "pw1")

			pair, err := h.svc.Identity.Login(context.Background(), service.LoginInput{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
				assert.Zero(t, h.sessions.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, h.sessions.Len())

			user, err := h.svc.Identity.ValidateAccessToken(context.Background(), pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", user.Username)
		})
	}
}

func TestIdentityService_ChangePassword_InvalidatesEarlierTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.signup(t, "a@x.com", "pw1")

	err := h.svc.Identity.ChangePassword(ctx, service.ChangePasswordInput{
		Username:    "a@x.com",
		OldPassword: "pw1",
		NewPassword: "pw2",
	})
	require.NoError(t, err)

	_, err = h.svc.Identity.ValidateAccessToken(ctx, before.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "tokens minted before the change are stale")

	_, err = h.svc.Identity.Login(ctx, service.LoginInput{Username: "a@x.com", Password: "pw1"})
	assert.ErrorIs(t, err, domain.ErrBadCredentials)

	after := h.login(t, "a@x.com", "pw2")
	_, err = h.svc.Identity.ValidateAccessToken(ctx, after.AccessToken)
	assert.NoError(t, err)

	// The refresh record survives and re-mints tokens with the new mark.
	rotated, err := h.svc.Identity.Refresh(ctx, before.AccessToken, before.RefreshToken)
	require.NoError(t, err)
	_, err = h.svc.Identity.ValidateAccessToken(ctx, rotated.AccessToken)
	assert.NoError(t, err)
}

func TestIdentityService_ChangePassword_MarkAdvancesWithinOneInstant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "a@x.com", "pw1")
	registered := h.user(t, "a@x.com").LastModifiedAt

	require.NoError(t, h.svc.Identity.ChangePassword(ctx, service.ChangePasswordInput{Username: "a@x.com", OldPassword: "pw1", NewPassword: "pw2"}))
	require.NoError(t, h.svc.Identity.ChangePassword(ctx, service.ChangePasswordInput{Username: "a@x.com", OldPassword: "pw2", NewPassword: "pw3"}))

	assert.True(t, h.user(t, "a@x.com").LastModifiedAt.After(registered.Add(time.Millisecond)))
}

func TestIdentityService_ChangePassword_Failures(t *testing.T) {
	tests := []struct {
		name    string
		input   service.ChangePasswordInput
		wantErr error
	}{
		{
			name:    "unknown user",
			input:   service.ChangePasswordInput{Username: "b@x.com", OldPassword: "pw1", NewPassword: "pw2"},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "wrong old password",
			input:   service.ChangePasswordInput{Username: "a@x.com", OldPassword: "nope", NewPassword: "pw2"},
			wantErr: domain.ErrBadCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			pair := h.signup(t, "a@x.com", "pw1")

			err := h.svc.Identity.ChangePassword(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = h.svc.Identity.ValidateAccessToken(context.Background(), pair.AccessToken)
			assert.NoError(t, err, "a rejected change leaves tokens valid")
		})
	}
}

func TestIdentityService_DeleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")
	other := h.signup(t, "b@x.com", "pw2")

	var ids []uuid.UUID
	for _, title := range []string{"one", "two"} {
		todo, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: title, Description: "d"})
		require.NoError(t, err)
		ids = append(ids, todo.ID)
	}
	kept, err := h.svc.Todo.Create(ctx, other.AccessToken, service.CreateTodoInput{Title: "theirs", Description: "d"})
	require.NoError(t, err)

	require.NoError(t, h.svc.Identity.DeleteAccount(ctx, pair.AccessToken))

	_, err = h.repos.User.GetByUsername(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	for _, id := range ids {
		_, err := h.repos.Todo.GetByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}
	_, err = h.repos.Todo.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, h.events.closed)

	err = h.svc.Identity.DeleteAccount(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityService_DeleteAccount_SkipsTodosAlreadyGone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")

	todo, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	require.NoError(t, h.repos.Todo.Delete(ctx, todo.ID))

	require.NoError(t, h.svc.Identity.DeleteAccount(ctx, pair.AccessToken))
	_, err = h.repos.User.GetByUsername(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIdentityService_DeleteAccount_StoreFailureKeepsUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")

	first, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: "one", Description: "d"})
	require.NoError(t, err)
	second, err := h.svc.Todo.Create(ctx, pair.AccessToken, service.CreateTodoInput{Title: "two", Description: "d"})
	require.NoError(t, err)
	h.todos.failDelete[second.ID] = errStoreDown

	err = h.svc.Identity.DeleteAccount(ctx, pair.AccessToken)
	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	// No rollback: the first todo is gone, the user and second todo remain.
	_, err = h.repos.Todo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = h.repos.Todo.GetByID(ctx, second.ID)
	assert.NoError(t, err)
	assert.Len(t, h.user(t, "a@x.com").OwnedItemIDs, 2)
	assert.Empty(t, h.events.closed)
}

func TestIdentityService_Authenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "a@x.com", "pw1")
	stranger, err := h.codec.Issue("ghost@x.com", h.clock.Now())
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid bearer", header: "Bearer " + pair.AccessToken},
		{name: "missing header", header: "", wantErr: domain.ErrNoToken},
		{name: "wrong scheme", header: "Basic " + pair.AccessToken, wantErr: domain.ErrNoToken},
		{name: "garbage token", header: "Bearer not.a.jwt", wantErr: domain.ErrMalformedToken},
		{name: "unknown subject", header: "Bearer " + stranger, wantErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := h.svc.Identity.Authenticate(ctx, tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, domain.IsUnauthorized(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", user.Username)
			assert.Equal(t, pair.AccessToken, token)
		})
	}
}
