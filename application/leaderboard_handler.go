package application

import (
	"context"
	"errors"

	"wealthreactor/application/dto"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LeaderboardHandler serves the public earnings board
type LeaderboardHandler interface {
	Leaderboard(ctx context.Context, limit int) (*dto.LeaderboardDTO, error)
}

type leaderboardHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(uowFactory UnitOfWorkFactory) LeaderboardHandler {
	return &leaderboardHandler{
		uowFactory: uowFactory,
	}
}

// Leaderboard returns top earners and site totals; empty when storage is down
func (h *leaderboardHandler) Leaderboard(ctx context.Context, limit int) (*dto.LeaderboardDTO, error) {
	board := &dto.LeaderboardDTO{}
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		leaderboard := services.NewLeaderboardService(uow.UserRepository(), uow.CommissionRepository(), uow.AgentRepository())

		entries, err := leaderboard.GetLeaderboard(ctx, limit)
		if err != nil {
			return err
		}
		stats, err := leaderboard.GetGlobalStats(ctx)
		if err != nil {
			return err
		}
		board.Entries = entries
		board.Stats = stats
		return nil
	})
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.WithError(err).Warn("Storage unavailable, serving empty leaderboard")
		return emptyLeaderboard(), nil
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

func emptyLeaderboard() *dto.LeaderboardDTO {
	return &dto.LeaderboardDTO{
		Entries: make([]*entities.LeaderboardEntry, 0),
		Stats: &entities.GlobalStats{
			TotalCommissions:   decimal.Zero,
			PendingCommissions: decimal.Zero,
		},
	}
}
