package services

import (
	"context"
	"fmt"

	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// leaderboardService reports top earners and site-wide totals
type leaderboardService struct {
	userRepo       interfaces.UserRepository
	commissionRepo interfaces.CommissionRepository
	agentRepo      interfaces.AgentRepository
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	userRepo interfaces.UserRepository,
	commissionRepo interfaces.CommissionRepository,
	agentRepo interfaces.AgentRepository,
) interfaces.LeaderboardService {
	return &leaderboardService{
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		agentRepo:      agentRepo,
	}
}

// ClampLeaderboardLimit applies the default and maximum board size
func ClampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	entries, err := s.commissionRepo.GetLeaderboard(ctx, ClampLeaderboardLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if entries == nil {
		entries = []*entities.LeaderboardEntry{}
	}
	for i, entry := range entries {
		entry.Rank = i + 1
	}
	return entries, nil
}

func (s *leaderboardService) GetGlobalStats(ctx context.Context) (*entities.GlobalStats, error) {
	totalUsers, paidUsers, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	totalAgents, err := s.agentRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count agents: %w", err)
	}

	total, pending, err := s.commissionRepo.GetTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission totals: %w", err)
	}

	return &entities.GlobalStats{
		TotalUsers:         totalUsers,
		PaidUsers:          paidUsers,
		TotalAgents:        totalAgents,
		TotalCommissions:   total,
		PendingCommissions: pending,
	}, nil
}
