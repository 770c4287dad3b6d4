package repository

import (
	"context"
	"testing"

	"wealthreactor/domain"
	"wealthreactor/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("user found", func(t *testing.T) {
		created := testutil.CreateTestUser("alice", "", "")
		require.NoError(t, repo.Create(ctx, created))
		assert.NotZero(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.HasPaid)
		assert.Nil(t, user.WalletAddress)
		assert.Empty(t, user.Links)
	})

	t.Run("duplicate username", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("bob", "", "")))

		err := repo.Create(ctx, testutil.CreateTestUser("bob", "", ""))
		assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	})

	t.Run("referrer chain stored", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("dave", "bob", "alice")))

		user, err := repo.GetByUsername(ctx, "dave")
		require.NoError(t, err)
		require.NotNil(t, user.ReferrerUsername)
		require.NotNil(t, user.ReferrerL2Username)
		assert.Equal(t, "bob", *user.ReferrerUsername)
		assert.Equal(t, "alice", *user.ReferrerL2Username)
	})
}

func TestUserRepository_MarkPaid(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("alice", "", "")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("mallory", "", "")))
	wallet := testutil.NextTestWallet()
	tx := "0xfeed"

	flipped, err := repo.MarkPaid(ctx, "alice", wallet, &tx)
	require.NoError(t, err)
	assert.True(t, flipped)

	t.Run("second flip is a no-op", func(t *testing.T) {
		flipped, err := repo.MarkPaid(ctx, "alice", wallet, nil)
		require.NoError(t, err)
		assert.False(t, flipped)
	})

	t.Run("wallet and tx recorded", func(t *testing.T) {
		user, err := repo.GetByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, user.HasPaid)
		require.NotNil(t, user.PaymentTx)
		assert.Equal(t, tx, *user.PaymentTx)
	})

	t.Run("wallet bound to another user", func(t *testing.T) {
		_, err := repo.MarkPaid(ctx, "mallory", wallet, nil)
		assert.ErrorIs(t, err, domain.ErrWalletInUse)
	})

	t.Run("counts", func(t *testing.T) {
		total, paid, err := repo.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, int64(1), paid)
	})
}

func TestUserRepository_UpdateLinks(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("alice", "", "")))

	user, err := repo.UpdateLinks(ctx, "alice", map[string]string{"crinkl": "https://x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"crinkl": "https://x"}, user.Links)

	_, err = repo.UpdateLinks(ctx, "nobody", map[string]string{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_CountReferrals(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("carol", "", "")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("bob", "carol", "")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("alice", "bob", "carol")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("erin", "bob", "carol")))

	l1, l2, err := repo.CountReferrals(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), l1)
	assert.Equal(t, int64(2), l2)

	l1, l2, err = repo.CountReferrals(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), l1)
	assert.Equal(t, int64(0), l2)

	users, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
