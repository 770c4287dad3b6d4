package web

import (
	"fmt"
	"net/url"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"

	"github.com/gin-gonic/gin"
)

type referRequest struct {
	Referrer string `json:"referrer" binding:"required"`
}

func (r *routes) refer(c *gin.Context) {
	var req referRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "referrer is required")
		return
	}

	referrer := entities.NormalizeUsername(req.Referrer)
	if !entities.IsValidUsername(referrer) {
		respondError(c, domain.ErrInvalidFormat)
		return
	}

	pricing := r.deps.Site.Pricing
	respondOK(c, gin.H{
		"referral_link": r.deps.Site.BaseURL + "/start?ref=" + url.QueryEscape(referrer),
		"referrer":      referrer,
		"commission_rate": gin.H{
			"l1":         pricing.L1Rate,
			"l2":         pricing.L2Rate,
			"access_fee": pricing.AccessFee,
		},
		"streams":      streamSummaries(true),
		"instructions": "Share the referral_link. You earn the L1 commission when your referrals pay and the L2 commission when their referrals pay.",
	})
}

func (r *routes) referDocument(c *gin.Context) {
	pricing := r.deps.Site.Pricing
	respondOK(c, gin.H{
		"name":    r.deps.Site.Name + " Referral API",
		"version": r.deps.Site.Version,
		"endpoints": gin.H{
			"POST /api/refer": gin.H{
				"description": "Generate a referral link",
				"body":        gin.H{"referrer": "string (required) - your username"},
			},
			"GET /api/user/{username}": gin.H{
				"description": "Get the public profile of a user",
			},
		},
		"commission_structure": gin.H{
			"l1":         fmt.Sprintf("%s%% of access fee", pricing.L1Rate.Shift(2).String()),
			"l2":         fmt.Sprintf("%s%% of access fee", pricing.L2Rate.Shift(2).String()),
			"access_fee": fmt.Sprintf("$%s USDC", pricing.AccessFee.StringFixed(2)),
		},
	})
}
