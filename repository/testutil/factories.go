package testutil

import (
	"fmt"
	"sync/atomic"

	"wealthreactor/domain/entities"

	"github.com/shopspring/decimal"
)

var walletSeq atomic.Uint64

// CreateTestUser creates an unpaid user with an optional referrer chain
func CreateTestUser(username string, referrer, referrerL2 string) *entities.User {
	user := &entities.User{
		Username: username,
		Links:    map[string]string{},
	}
	if referrer != "" {
		user.ReferrerUsername = &referrer
	}
	if referrerL2 != "" {
		user.ReferrerL2Username = &referrerL2
	}
	return user
}

// NextTestWallet returns a distinct valid lowercase wallet address
func NextTestWallet() string {
	return fmt.Sprintf("0x%040x", walletSeq.Add(1))
}

// CreateTestCommission creates a pending commission at the default $30 fee rates
func CreateTestCommission(earner, referral string, level entities.CommissionLevel) *entities.Commission {
	amount := decimal.RequireFromString("6.00")
	if level == entities.CommissionLevelIndirect {
		amount = decimal.RequireFromString("3.00")
	}
	return &entities.Commission{
		EarnerUsername:   earner,
		ReferralUsername: referral,
		Level:            level,
		Amount:           amount,
		Status:           entities.CommissionStatusPending,
	}
}

// CreateTestAgent creates an agent with a fresh wallet
func CreateTestAgent(agentID string, referrer, referrerL2 string) *entities.Agent {
	agent := &entities.Agent{
		AgentID:       agentID,
		WalletAddress: NextTestWallet(),
		Metadata:      map[string]any{"kind": "test"},
	}
	if referrer != "" {
		agent.ReferrerAgentID = &referrer
	}
	if referrerL2 != "" {
		agent.ReferrerL2AgentID = &referrerL2
	}
	return agent
}

// TestPricing is the default $30 fee with 20% and 10% commissions
func TestPricing() entities.Pricing {
	return entities.Pricing{
		AccessFee:     decimal.NewFromInt(30),
		L1Rate:        decimal.RequireFromString("0.20"),
		L2Rate:        decimal.RequireFromString("0.10"),
		TokenDecimals: 6,
	}
}
