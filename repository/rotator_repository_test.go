package repository

import (
	"context"
	"testing"
	"time"

	"wealthreactor/domain"
	"wealthreactor/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatorRepository_Grant(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRotatorRepository(testDB.DB)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, testutil.CreateTestUser("alice", "", "")))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lease := 24 * time.Hour

	t.Run("first grant starts at now", func(t *testing.T) {
		tx := "0x01"
		entry, err := repo.Grant(ctx, "alice", &tx, now, lease)
		require.NoError(t, err)
		assert.True(t, entry.ExpiresAt.Equal(now.Add(lease)), entry.ExpiresAt.String())
		require.NotNil(t, entry.TxHash)
		assert.Equal(t, tx, *entry.TxHash)
	})

	t.Run("unexpired grant extends from current expiry", func(t *testing.T) {
		entry, err := repo.Grant(ctx, "alice", nil, now.Add(time.Hour), lease)
		require.NoError(t, err)
		assert.True(t, entry.ExpiresAt.Equal(now.Add(2*lease)), entry.ExpiresAt.String())
		require.NotNil(t, entry.TxHash, "tx hash kept when not supplied")
	})

	t.Run("expired grant restarts", func(t *testing.T) {
		later := now.Add(10 * lease)
		entry, err := repo.Grant(ctx, "alice", nil, later, lease)
		require.NoError(t, err)
		assert.True(t, entry.ExpiresAt.Equal(later.Add(lease)), entry.ExpiresAt.String())
	})

	t.Run("unknown user rejected by foreign key", func(t *testing.T) {
		_, err := repo.Grant(ctx, "ghost", nil, now, lease)
		assert.Error(t, err)
	})
}

func TestRotatorRepository_ListActiveAndAdmin(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRotatorRepository(testDB.DB)
	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, users.Create(ctx, testutil.CreateTestUser(name, "", "")))
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lease := 24 * time.Hour

	_, err := repo.Grant(ctx, "alice", nil, now.Add(-2*time.Hour), lease)
	require.NoError(t, err)
	_, err = repo.Grant(ctx, "bob", nil, now.Add(-time.Hour), lease)
	require.NoError(t, err)
	_, err = repo.Grant(ctx, "carol", nil, now.Add(-3*lease), lease)
	require.NoError(t, err)

	t.Run("expired members excluded, oldest first", func(t *testing.T) {
		entries, err := repo.ListActive(ctx, now)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].Username)
		assert.Equal(t, "bob", entries[1].Username)
	})

	t.Run("ensure active never shortens", func(t *testing.T) {
		before, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)

		entry, err := repo.EnsureActive(ctx, "alice", now, lease)
		require.NoError(t, err)
		assert.True(t, entry.ExpiresAt.Equal(before.ExpiresAt))
	})

	t.Run("ensure active revives expired entry", func(t *testing.T) {
		entry, err := repo.EnsureActive(ctx, "carol", now, lease)
		require.NoError(t, err)
		assert.True(t, entry.ExpiresAt.Equal(now.Add(lease)))
	})

	t.Run("expire removes from active list", func(t *testing.T) {
		require.NoError(t, repo.Expire(ctx, "bob", now))

		entries, err := repo.ListActive(ctx, now)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotEqual(t, "bob", e.Username)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "carol"))

		entry, err := repo.GetByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.Nil(t, entry)

		assert.ErrorIs(t, repo.Delete(ctx, "carol"), domain.ErrNotFound)
		assert.ErrorIs(t, repo.Expire(ctx, "carol", now), domain.ErrNotFound)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		entries, err := repo.ListActive(ctx, now.Add(100*lease))
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}
