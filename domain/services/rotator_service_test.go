package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRotatorService(m *TestMocks, intN func(int) int) *rotatorService {
	if intN == nil {
		intN = func(int) int { return 0 }
	}
	return newRotatorService(
		m.UserRepo,
		m.RotatorRepo,
		m.EventPublisher,
		entities.DefaultRotatorLease,
		func() time.Time { return TestNow },
		intN,
	)
}

func activeEntries(names ...string) []*entities.RotatorEntry {
	entries := make([]*entities.RotatorEntry, 0, len(names))
	for i, name := range names {
		entries = append(entries, &entities.RotatorEntry{
			ID:        int64(i + 1),
			Username:  name,
			ExpiresAt: TestNow.Add(time.Hour),
			CreatedAt: TestNow.Add(-time.Duration(len(names)-i) * time.Minute),
		})
	}
	return entries
}

func TestRotatorService_Join(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		setup        func(m *TestMocks)
		wantErr      error
		wantExpiry   time.Time
		wantExtended bool
	}{
		{
			name: "first join starts lease now",
			setup: func(m *TestMocks) {
				m.UserRepo.On("GetByUsername", mock.Anything, "alice").Return(NewTestPaidUser("alice", TestWallet), nil)
				m.RotatorRepo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
				m.RotatorRepo.On("Grant", mock.Anything, "alice", (*string)(nil), TestNow, entities.DefaultRotatorLease).
					Return(&entities.RotatorEntry{Username: "alice", ExpiresAt: TestNow.Add(24 * time.Hour)}, nil)
			},
			wantExpiry: TestNow.Add(24 * time.Hour),
		},
		{
			name: "unexpired lease is extended",
			setup: func(m *TestMocks) {
				current := &entities.RotatorEntry{Username: "alice", ExpiresAt: TestNow.Add(6 * time.Hour)}
				m.UserRepo.On("GetByUsername", mock.Anything, "alice").Return(NewTestPaidUser("alice", TestWallet), nil)
				m.RotatorRepo.On("GetByUsername", mock.Anything, "alice").Return(current, nil)
				m.RotatorRepo.On("Grant", mock.Anything, "alice", (*string)(nil), TestNow, entities.DefaultRotatorLease).
					Return(&entities.RotatorEntry{Username: "alice", ExpiresAt: TestNow.Add(30 * time.Hour)}, nil)
			},
			wantExpiry:   TestNow.Add(30 * time.Hour),
			wantExtended: true,
		},
		{
			name: "unpaid user rejected",
			setup: func(m *TestMocks) {
				m.UserRepo.On("GetByUsername", mock.Anything, "alice").Return(NewTestUser("alice", "", ""), nil)
			},
			wantErr: domain.ErrNotPaid,
		},
		{
			name: "unknown user",
			setup: func(m *TestMocks) {
				m.UserRepo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			mocks.EventPublisher.ExpectedCalls = nil
			tt.setup(mocks)
			if tt.wantErr == nil {
				mocks.EventPublisher.On("Publish", events.RotatorJoinedEvent{
					Username:  "alice",
					ExpiresAt: tt.wantExpiry.Unix(),
					Extended:  tt.wantExtended,
				}).Return(nil).Once()
			}

			entry, err := newTestRotatorService(mocks, nil).Join(context.Background(), "alice", nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mocks.RotatorRepo.AssertNotCalled(t, "Grant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExpiry, entry.ExpiresAt)
			mocks.AssertAllExpectations(t)
			mocks.EventPublisher.AssertExpectations(t)
		})
	}
}

func TestRotatorService_ListActive_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return(nil, nil)

	entries, err := newTestRotatorService(mocks, nil).ListActive(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRotatorService_PickFeatured(t *testing.T) {
	t.Parallel()

	t.Run("empty rotator yields nil", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return([]*entities.RotatorEntry{}, nil)

		featured, err := newTestRotatorService(mocks, nil).PickFeatured(context.Background())

		require.NoError(t, err)
		assert.Nil(t, featured)
	})

	t.Run("single member always featured", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return(activeEntries("alice"), nil)

		featured, err := newTestRotatorService(mocks, rand.IntN).PickFeatured(context.Background())

		require.NoError(t, err)
		require.NotNil(t, featured)
		assert.Equal(t, "alice", featured.Username)
	})

	t.Run("index comes from the random source", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return(activeEntries("alice", "bob", "carol"), nil)

		featured, err := newTestRotatorService(mocks, func(n int) int { return n - 1 }).PickFeatured(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "carol", featured.Username)
	})
}

func TestRotatorService_Snapshot_PicksFromListedMembers(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return(activeEntries("alice", "bob"), nil).Once()
	mocks.RotatorRepo.On("ListActive", mock.Anything, TestNow).Return(activeEntries("carol"), nil)

	entries, featured, err := newTestRotatorService(mocks, func(n int) int { return n - 1 }).Snapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, featured)
	assert.Equal(t, "bob", featured.Username)
	mocks.RotatorRepo.AssertNumberOfCalls(t, "ListActive", 1)
}

func TestRotatorService_PickIsUniform(t *testing.T) {
	t.Parallel()

	const trials = 10000
	entries := activeEntries("alice", "bob", "carol", "dave")
	rng := rand.New(rand.NewPCG(42, 1024))
	service := newTestRotatorService(NewTestMocks(), rng.IntN)

	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[service.pick(entries).Username]++
	}

	expected := float64(trials) / float64(len(entries))
	for _, entry := range entries {
		deviation := math.Abs(float64(counts[entry.Username])-expected) / expected
		assert.Less(t, deviation, 0.1, fmt.Sprintf("%s picked %d times", entry.Username, counts[entry.Username]))
	}
}

func TestRotatorService_SetActive(t *testing.T) {
	t.Parallel()

	t.Run("activate grants lease without payment check", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.UserRepo.On("GetByUsername", mock.Anything, "alice").Return(NewTestUser("alice", "", ""), nil)
		mocks.RotatorRepo.On("EnsureActive", mock.Anything, "alice", TestNow, entities.DefaultRotatorLease).
			Return(&entities.RotatorEntry{Username: "alice", ExpiresAt: TestNow.Add(24 * time.Hour)}, nil)

		entry, err := newTestRotatorService(mocks, nil).Add(context.Background(), "Alice")

		require.NoError(t, err)
		assert.True(t, entry.IsActiveAt(TestNow))
		mocks.AssertAllExpectations(t)
	})

	t.Run("activate unknown user", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.UserRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)

		_, err := newTestRotatorService(mocks, nil).SetActive(context.Background(), "ghost", true)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deactivate expires now", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.RotatorRepo.On("Expire", mock.Anything, "alice", TestNow).Return(nil)
		mocks.RotatorRepo.On("GetByUsername", mock.Anything, "alice").
			Return(&entities.RotatorEntry{Username: "alice", ExpiresAt: TestNow}, nil)

		entry, err := newTestRotatorService(mocks, nil).SetActive(context.Background(), "alice", false)

		require.NoError(t, err)
		assert.False(t, entry.IsActiveAt(TestNow))
		mocks.AssertAllExpectations(t)
	})

	t.Run("deactivate missing entry", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.RotatorRepo.On("Expire", mock.Anything, "alice", TestNow).Return(domain.ErrNotFound)

		_, err := newTestRotatorService(mocks, nil).SetActive(context.Background(), "alice", false)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRotatorService_Remove(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.RotatorRepo.On("Delete", mock.Anything, "alice").Return(nil)
	mocks.RotatorRepo.On("Delete", mock.Anything, "ghost").Return(domain.ErrNotFound)
	service := newTestRotatorService(mocks, nil)

	require.NoError(t, service.Remove(context.Background(), "ALICE"))
	assert.ErrorIs(t, service.Remove(context.Background(), "ghost"), domain.ErrNotFound)
}
