package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository/postgres"
	"github.com/cantetik/hepsiemlak-todo-case/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAndRotate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	session := &domain.Session{
		AccessToken:   "access-1",
		RefreshToken:  "refresh-1",
		OwnerUsername: "a@x.com",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, session))

	dup := &domain.Session{AccessToken: "x", RefreshToken: "refresh-1", OwnerUsername: "b@x.com", ExpiresAt: time.Now()}
	assert.ErrorIs(t, repo.Create(ctx, dup), repository.ErrDuplicate)

	session.AccessToken = "access-2"
	session.RefreshToken = "refresh-2"
	require.NoError(t, repo.Update(ctx, session))

	_, err := repo.GetByRefreshToken(ctx, "refresh-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := repo.GetByRefreshToken(ctx, "refresh-2")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "access-2", got.AccessToken)

	missing := &domain.Session{ID: uuid.New(), AccessToken: "a", RefreshToken: "r"}
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now()
	for i, offset := range []time.Duration{-2 * time.Hour, -time.Minute, time.Hour} {
		require.NoError(t, repo.Create(ctx, &domain.Session{
			AccessToken:   "a",
			RefreshToken:  uuid.NewString(),
			OwnerUsername: "a@x.com",
			ExpiresAt:     now.Add(offset),
		}), "session %d", i)
	}

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	removed, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
