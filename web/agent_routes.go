package web

import (
	"fmt"
	"net/http"

	"wealthreactor/application/dto"
	"wealthreactor/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Agent API actions
const (
	ActionRegister   = "register"
	ActionGetLink    = "get_link"
	ActionStats      = "stats"
	ActionSetWebhook = "set_webhook"
)

type agentActionRequest struct {
	Action     string         `json:"action"`
	AgentID    string         `json:"agent_id"`
	Wallet     string         `json:"wallet"`
	Referrer   string         `json:"referrer"`
	Metadata   map[string]any `json:"metadata"`
	WebhookURL string         `json:"webhook_url"`
}

func (r *routes) agentAction(c *gin.Context) {
	var req agentActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "request body must be a JSON object")
		return
	}
	if req.AgentID == "" {
		abortInvalid(c, "agent_id is required")
		return
	}

	switch req.Action {
	case ActionRegister:
		r.registerAgent(c, req)
	case ActionGetLink:
		link, err := r.deps.Agents.GetLink(c.Request.Context(), req.AgentID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, link)
	case ActionStats:
		stats, err := r.deps.Agents.Stats(c.Request.Context(), req.AgentID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, stats)
	case ActionSetWebhook:
		r.setAgentWebhook(c, req)
	default:
		abortInvalid(c, fmt.Sprintf("unknown action %q, expected one of register, get_link, stats, set_webhook", req.Action))
	}
}

func (r *routes) registerAgent(c *gin.Context, req agentActionRequest) {
	if req.Wallet == "" {
		abortInvalid(c, "wallet is required")
		return
	}

	agent, created, err := r.deps.Agents.Register(c.Request.Context(), entities.RegisterAgentParams{
		AgentID:  req.AgentID,
		Wallet:   req.Wallet,
		Referrer: req.Referrer,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, Response{Success: true, Data: gin.H{
		"agent":   dto.AgentToDTO(agent),
		"created": created,
	}})
}

func (r *routes) setAgentWebhook(c *gin.Context, req agentActionRequest) {
	if req.WebhookURL == "" {
		abortInvalid(c, "webhook_url is required")
		return
	}

	agent, err := r.deps.Agents.SetWebhook(c.Request.Context(), req.AgentID, req.WebhookURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"message":     "Webhook registered",
		"agent_id":    agent.AgentID,
		"webhook_url": req.WebhookURL,
		"events":      []string{dto.WebhookEventNewL1Referral, dto.WebhookEventNewL2Referral},
	})
}

// agentDocument describes the agent API so callers can discover it
func (r *routes) agentDocument(c *gin.Context) {
	site := r.deps.Site
	pricing := site.Pricing

	respondOK(c, gin.H{
		"name":        site.Name + " Agent API",
		"version":     site.Version,
		"description": "API for agents to register, share referral links and track earnings",
		"base_url":    site.BaseURL,
		"actions": gin.H{
			ActionRegister: gin.H{
				"description": "Register a new agent",
				"required":    []string{"agent_id", "wallet"},
				"optional":    []string{"referrer", "metadata"},
			},
			ActionGetLink: gin.H{
				"description": "Get the referral link for an agent",
				"required":    []string{"agent_id"},
			},
			ActionStats: gin.H{
				"description": "Get earnings and referral tree",
				"required":    []string{"agent_id"},
			},
			ActionSetWebhook: gin.H{
				"description": "Register a webhook for new referral notifications",
				"required":    []string{"agent_id", "webhook_url"},
			},
		},
		"economics": gin.H{
			"access_fee":    fmt.Sprintf("$%s USDC", pricing.AccessFee.StringFixed(2)),
			"l1_commission": describeRate(pricing.L1Rate, pricing.CommissionFor(entities.CommissionLevelDirect)),
			"l2_commission": describeRate(pricing.L2Rate, pricing.CommissionFor(entities.CommissionLevelIndirect)),
		},
		"payment": gin.H{
			"strategy": site.Strategy,
			"chain_id": site.ChainID,
			"token":    site.TokenAddress,
			"treasury": site.Treasury,
			"contract": site.ContractAddress,
		},
		"rotator": gin.H{
			"lease": site.RotatorLease.String(),
		},
		"income_streams": streamSummaries(false),
		"example_curl": fmt.Sprintf(`curl -X POST %s/api/agent \
  -H "Content-Type: application/json" \
  -d '{"action": "register", "agent_id": "my_bot", "wallet": "0x..."}'`, site.BaseURL),
	})
}

func describeRate(rate, amount decimal.Decimal) string {
	return fmt.Sprintf("%s%% ($%s)", rate.Shift(2).String(), amount.StringFixed(2))
}

func streamSummaries(withLinks bool) []gin.H {
	streams := entities.Streams()
	out := make([]gin.H, 0, len(streams))
	for _, s := range streams {
		summary := gin.H{
			"id":      s.ID,
			"name":    s.Name,
			"tagline": s.Tagline,
		}
		if withLinks {
			summary["default_link"] = s.DefaultURL
		}
		out = append(out, summary)
	}
	return out
}
