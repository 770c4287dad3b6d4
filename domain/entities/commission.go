package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CommissionLevel is the depth of the referral relationship that earned a commission
type CommissionLevel int

const (
	CommissionLevelDirect   CommissionLevel = 1
	CommissionLevelIndirect CommissionLevel = 2
)

// CommissionStatus tracks payout progress
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission records the entitlement created when a referred user pays
type Commission struct {
	ID               int64            `db:"id"`
	EarnerUsername   string           `db:"earner_username"`
	ReferralUsername string           `db:"referral_username"`
	Level            CommissionLevel  `db:"level"`
	Amount           decimal.Decimal  `db:"amount"`
	Status           CommissionStatus `db:"status"`
	CreatedAt        time.Time        `db:"created_at"`
	PaidAt           *time.Time       `db:"paid_at"`
}

// Validate checks the commission before it is written
func (c *Commission) Validate() error {
	if c.EarnerUsername == "" || c.ReferralUsername == "" {
		return fmt.Errorf("commission requires earner and referral")
	}
	if c.EarnerUsername == c.ReferralUsername {
		return fmt.Errorf("user %s cannot earn from their own payment", c.EarnerUsername)
	}
	if c.Level != CommissionLevelDirect && c.Level != CommissionLevelIndirect {
		return fmt.Errorf("invalid commission level %d", c.Level)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("commission amount must be positive")
	}
	return nil
}

// IsPending reports whether the commission still awaits payout
func (c *Commission) IsPending() bool {
	return c.Status == CommissionStatusPending
}

// Pricing holds the access fee and per-level commission rates
type Pricing struct {
	AccessFee     decimal.Decimal
	L1Rate        decimal.Decimal
	L2Rate        decimal.Decimal
	TokenDecimals int32
}

// CommissionFor returns the amount credited at a level, rounded to cents
func (p Pricing) CommissionFor(level CommissionLevel) decimal.Decimal {
	switch level {
	case CommissionLevelDirect:
		return p.AccessFee.Mul(p.L1Rate).Round(2)
	case CommissionLevelIndirect:
		return p.AccessFee.Mul(p.L2Rate).Round(2)
	default:
		return decimal.Zero
	}
}

// RequiredTokenUnits is the access fee in the token's smallest unit (30 USDC -> 30000000)
func (p Pricing) RequiredTokenUnits() decimal.Decimal {
	return p.AccessFee.Shift(p.TokenDecimals).Truncate(0)
}

// ReferralStats summarises a user's referral tree and earnings
type ReferralStats struct {
	ReferralCount   int64           `json:"referralCount"`
	L2ReferralCount int64           `json:"l2ReferralCount"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	PendingEarned   decimal.Decimal `json:"pendingEarned"`
}

// LeaderboardEntry is one row of the top-earners board
type LeaderboardEntry struct {
	Rank        int             `json:"rank"`
	Username    string          `json:"username"`
	L1Count     int64           `json:"l1"`
	L2Count     int64           `json:"l2"`
	TotalEarned decimal.Decimal `json:"totalEarned"`
}

// GlobalStats aggregates site-wide totals
type GlobalStats struct {
	TotalUsers         int64           `json:"totalUsers"`
	PaidUsers          int64           `json:"paidUsers"`
	TotalAgents        int64           `json:"totalAgents"`
	TotalCommissions   decimal.Decimal `json:"totalCommissions"`
	PendingCommissions decimal.Decimal `json:"pendingCommissions"`
}
