package web

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func (r *routes) leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortInvalid(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	board, err := r.deps.Leaderboard.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, board)
}
