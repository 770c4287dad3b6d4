package dto

import "wealthreactor/domain/entities"

// LeaderboardDTO is the public earnings board with site totals
type LeaderboardDTO struct {
	Entries []*entities.LeaderboardEntry `json:"leaderboard"`
	Stats   *entities.GlobalStats        `json:"stats"`
}
