package web

import (
	"wealthreactor/application/dto"

	"github.com/gin-gonic/gin"
)

type reserveRequest struct {
	Username string `json:"username" binding:"required"`
	Ref      string `json:"ref"`
}

type saveLinksRequest struct {
	Username string            `json:"username" binding:"required"`
	Links    map[string]string `json:"links"`
}

func (r *routes) reserveUsername(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username is required")
		return
	}

	user, err := r.deps.Users.Reserve(c.Request.Context(), req.Username, req.Ref)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, dto.UserToDTO(user))
}

func (r *routes) saveLinks(c *gin.Context) {
	var req saveLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username is required")
		return
	}

	profile, err := r.deps.Users.SaveLinks(c.Request.Context(), req.Username, req.Links)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

func (r *routes) profile(c *gin.Context) {
	profile, err := r.deps.Users.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

func (r *routes) profileByWallet(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		abortInvalid(c, "wallet is required")
		return
	}

	profile, err := r.deps.Users.ProfileByWallet(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

func (r *routes) userStats(c *gin.Context) {
	stats, err := r.deps.Users.Stats(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}
