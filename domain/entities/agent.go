package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agent is a programmatic participant registered through the agent API
type Agent struct {
	ID                int64          `db:"id"`
	AgentID           string         `db:"agent_id"`
	WalletAddress     string         `db:"wallet_address"`
	ReferrerAgentID   *string        `db:"referrer_agent_id"`
	ReferrerL2AgentID *string        `db:"referrer_l2_agent_id"`
	WebhookURL        *string        `db:"webhook_url"`
	Metadata          map[string]any `db:"metadata"`
	CreatedAt         time.Time      `db:"created_at"`
}

// HasWebhook reports whether notifications can be delivered to the agent
func (a *Agent) HasWebhook() bool {
	return a.WebhookURL != nil && *a.WebhookURL != ""
}

// AgentStats is the referral tree and notional earnings of an agent
type AgentStats struct {
	AgentID       string          `json:"agentId"`
	Wallet        string          `json:"wallet"`
	L1Count       int             `json:"l1Count"`
	L2Count       int             `json:"l2Count"`
	L1Earnings    decimal.Decimal `json:"l1Earnings"`
	L2Earnings    decimal.Decimal `json:"l2Earnings"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	L1Referrals   []string        `json:"l1Referrals"`
	L2Referrals   []string        `json:"l2Referrals"`
}

// AgentLink is what an agent shares to recruit other agents or users
type AgentLink struct {
	AgentID      string          `json:"agentId"`
	ReferralLink string          `json:"referralLink"`
	EmbedHTML    string          `json:"embedHtml"`
	AccessFee    decimal.Decimal `json:"accessFee"`
	L1Rate       decimal.Decimal `json:"l1Rate"`
	L2Rate       decimal.Decimal `json:"l2Rate"`
}

// RegisterAgentParams carries the fields accepted by agent registration
type RegisterAgentParams struct {
	AgentID  string
	Wallet   string
	Referrer string
	Metadata map[string]any
}
