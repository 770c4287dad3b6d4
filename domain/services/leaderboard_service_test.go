package services

import (
	"context"
	"testing"

	"wealthreactor/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClampLeaderboardLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: 10},
		{in: -5, want: 10},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: 100, want: 100},
		{in: 1000, want: 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLeaderboardLimit(tt.in), "limit %d", tt.in)
	}
}

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.CommissionRepo.On("GetLeaderboard", mock.Anything, 100).Return([]*entities.LeaderboardEntry{
		{Username: "bob", L1Count: 3, TotalEarned: decimal.NewFromInt(18)},
		{Username: "carol", L2Count: 2, TotalEarned: decimal.NewFromInt(6)},
	}, nil)
	service := NewLeaderboardService(mocks.UserRepo, mocks.CommissionRepo, mocks.AgentRepo)

	entries, err := service.GetLeaderboard(context.Background(), 500)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboardService_GetLeaderboard_Empty(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.CommissionRepo.On("GetLeaderboard", mock.Anything, 10).Return(nil, nil)
	service := NewLeaderboardService(mocks.UserRepo, mocks.CommissionRepo, mocks.AgentRepo)

	entries, err := service.GetLeaderboard(context.Background(), 0)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLeaderboardService_GetGlobalStats(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	mocks.UserRepo.On("CountUsers", mock.Anything).Return(int64(10), int64(4), nil)
	mocks.AgentRepo.On("Count", mock.Anything).Return(int64(2), nil)
	mocks.CommissionRepo.On("GetTotals", mock.Anything).Return(decimal.NewFromInt(27), decimal.NewFromInt(21), nil)
	service := NewLeaderboardService(mocks.UserRepo, mocks.CommissionRepo, mocks.AgentRepo)

	stats, err := service.GetGlobalStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.PaidUsers)
	assert.Equal(t, int64(2), stats.TotalAgents)
	assert.True(t, stats.TotalCommissions.Equal(decimal.NewFromInt(27)))
	assert.True(t, stats.PendingCommissions.Equal(decimal.NewFromInt(21)))
	mocks.AssertAllExpectations(t)
}
