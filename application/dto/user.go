package dto

import "time"

// UserDTO is a user record as returned by the registry and admin routes
type UserDTO struct {
	Username   string    `json:"username"`
	Wallet     string    `json:"wallet,omitempty"`
	Referrer   *string   `json:"referrer"`
	ReferrerL2 *string   `json:"referrerL2,omitempty"`
	HasPaid    bool      `json:"hasPaid"`
	PaymentTx  *string   `json:"paymentTx,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AgentDTO is a registered agent as returned by the agent API
type AgentDTO struct {
	AgentID    string         `json:"agentId"`
	Wallet     string         `json:"wallet"`
	Referrer   *string        `json:"referrer"`
	ReferrerL2 *string        `json:"referrerL2,omitempty"`
	HasWebhook bool           `json:"hasWebhook"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
