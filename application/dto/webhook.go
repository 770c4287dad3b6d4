package dto

import "time"

// Webhook event names delivered to agents
const (
	WebhookEventNewL1Referral = "new_l1_referral"
	WebhookEventNewL2Referral = "new_l2_referral"
)

// AgentWebhookDTO is the JSON body posted to an agent's webhook
type AgentWebhookDTO struct {
	Event     string    `json:"event"`
	AgentID   string    `json:"agentId"`
	Referral  string    `json:"referral"`
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}
