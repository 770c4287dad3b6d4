package web

import (
	"errors"
	"fmt"

	"wealthreactor/domain"

	"github.com/gin-gonic/gin"
)

type verifyPaymentRequest struct {
	Username      string `json:"username" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required"`
	TxHash        string `json:"txHash"`
}

func (r *routes) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username and walletAddress are required")
		return
	}

	outcome, err := r.deps.Payments.VerifyPayment(c.Request.Context(), req.Username, req.WalletAddress, req.TxHash)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		respondErrorWithData(c, err, gin.H{
			"verified": false,
			"treasury": r.deps.Site.Treasury,
			"required": r.requiredPayment(),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, outcome)
}

func (r *routes) checkWallet(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		abortInvalid(c, "wallet is required")
		return
	}

	check, err := r.deps.Payments.CheckWallet(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, check)
}

func (r *routes) requiredPayment() string {
	return fmt.Sprintf("$%s USDC", r.deps.Site.Pricing.AccessFee.StringFixed(2))
}
