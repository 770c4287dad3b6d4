package services

import (
	"context"
	"fmt"
	"html"
	"net/netip"
	"net/url"
	"strings"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// agentService implements the programmatic agent API
type agentService struct {
	agentRepo      interfaces.AgentRepository
	eventPublisher interfaces.EventPublisher
	pricing        entities.Pricing
	baseURL        string
}

// NewAgentService creates a new agent service
func NewAgentService(
	agentRepo interfaces.AgentRepository,
	eventPublisher interfaces.EventPublisher,
	pricing entities.Pricing,
	baseURL string,
) interfaces.AgentService {
	return &agentService{
		agentRepo:      agentRepo,
		eventPublisher: eventPublisher,
		pricing:        pricing,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// Register stores a new agent; an existing id is returned unchanged
func (s *agentService) Register(ctx context.Context, params entities.RegisterAgentParams) (*entities.Agent, bool, error) {
	agentID := entities.NormalizeUsername(params.AgentID)
	if !entities.IsValidUsername(agentID) {
		return nil, false, domain.ErrInvalidFormat
	}
	wallet := entities.NormalizeWallet(params.Wallet)
	if !entities.IsValidWallet(wallet) {
		return nil, false, domain.ErrInvalidWallet
	}

	existing, err := s.agentRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get agent: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	agent := &entities.Agent{
		AgentID:       agentID,
		WalletAddress: wallet,
		Metadata:      params.Metadata,
	}
	if agent.Metadata == nil {
		agent.Metadata = map[string]any{}
	}

	if err := s.attachReferrer(ctx, agent, params.Referrer); err != nil {
		return nil, false, err
	}

	created, err := s.agentRepo.Create(ctx, agent)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create agent: %w", err)
	}
	if !created {
		// Lost a race with a concurrent registration of the same id
		existing, err := s.agentRepo.GetByAgentID(ctx, agentID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get agent: %w", err)
		}
		return existing, false, nil
	}

	log.WithFields(log.Fields{
		"agentId":  agent.AgentID,
		"referrer": agent.ReferrerAgentID,
	}).Info("Agent registered")

	if err := s.eventPublisher.Publish(events.AgentRegisteredEvent{
		AgentID:           agent.AgentID,
		Wallet:            agent.WalletAddress,
		ReferrerAgentID:   agent.ReferrerAgentID,
		ReferrerL2AgentID: agent.ReferrerL2AgentID,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish agent registered event")
	}

	return agent, true, nil
}

func (s *agentService) attachReferrer(ctx context.Context, agent *entities.Agent, referrer string) error {
	referrer = entities.NormalizeUsername(referrer)
	if referrer == "" {
		return nil
	}
	if referrer == agent.AgentID {
		return fmt.Errorf("%w: cannot refer yourself", domain.ErrInvalidReferrer)
	}

	parent, err := s.agentRepo.GetByAgentID(ctx, referrer)
	if err != nil {
		return fmt.Errorf("failed to get referrer agent: %w", err)
	}
	if parent == nil {
		log.WithFields(log.Fields{
			"agentId":  agent.AgentID,
			"referrer": referrer,
		}).Warn("Dropping unknown referrer agent")
		return nil
	}

	agent.ReferrerAgentID = &parent.AgentID
	if parent.ReferrerAgentID != nil {
		l2 := *parent.ReferrerAgentID
		if l2 != agent.AgentID && l2 != parent.AgentID {
			agent.ReferrerL2AgentID = &l2
		}
	}
	return nil
}

// GetLink returns the agent's referral link and embed snippet
func (s *agentService) GetLink(ctx context.Context, agentID string) (*entities.AgentLink, error) {
	agent, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	link := ReferralLink(s.baseURL, agent.AgentID)
	return &entities.AgentLink{
		AgentID:      agent.AgentID,
		ReferralLink: link,
		EmbedHTML:    fmt.Sprintf(`<a href="%s">Join Wealth Reactor</a>`, html.EscapeString(link)),
		AccessFee:    s.pricing.AccessFee,
		L1Rate:       s.pricing.L1Rate,
		L2Rate:       s.pricing.L2Rate,
	}, nil
}

// Stats returns the agent's referral tree and notional earnings
func (s *agentService) Stats(ctx context.Context, agentID string) (*entities.AgentStats, error) {
	agent, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	l1, l2, err := s.agentRepo.ListReferrals(ctx, agent.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent referrals: %w", err)
	}
	if l1 == nil {
		l1 = []string{}
	}
	if l2 == nil {
		l2 = []string{}
	}

	l1Earnings := s.pricing.CommissionFor(entities.CommissionLevelDirect).Mul(decimal.NewFromInt(int64(len(l1))))
	l2Earnings := s.pricing.CommissionFor(entities.CommissionLevelIndirect).Mul(decimal.NewFromInt(int64(len(l2))))

	return &entities.AgentStats{
		AgentID:       agent.AgentID,
		Wallet:        agent.WalletAddress,
		L1Count:       len(l1),
		L2Count:       len(l2),
		L1Earnings:    l1Earnings,
		L2Earnings:    l2Earnings,
		TotalEarnings: l1Earnings.Add(l2Earnings),
		L1Referrals:   l1,
		L2Referrals:   l2,
	}, nil
}

// SetWebhook stores an absolute http(s) notification URL for the agent
func (s *agentService) SetWebhook(ctx context.Context, agentID, webhookURL string) (*entities.Agent, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if !IsWebhookURL(webhookURL) {
		return nil, fmt.Errorf("%w: webhook url must be an absolute http(s) url on a public host", domain.ErrInvalidInput)
	}

	agent, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := s.agentRepo.SetWebhook(ctx, agent.AgentID, webhookURL); err != nil {
		return nil, fmt.Errorf("failed to set webhook: %w", err)
	}
	agent.WebhookURL = &webhookURL
	return agent, nil
}

func (s *agentService) getAgent(ctx context.Context, agentID string) (*entities.Agent, error) {
	agentID = entities.NormalizeUsername(agentID)
	if !entities.IsValidUsername(agentID) {
		return nil, domain.ErrInvalidFormat
	}
	agent, err := s.agentRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}
	return agent, nil
}

// ReferralLink builds the signup link carrying a referrer
func ReferralLink(baseURL, referrer string) string {
	return fmt.Sprintf("%s/start?ref=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(referrer))
}

// IsWebhookURL reports whether raw is an absolute http or https URL whose host
// is not a local name or a non-public address literal
func IsWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return IsPublicAddress(addr)
	}
	return true
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPublicAddress reports whether addr is a globally routable unicast address.
// Loopback, link-local (including cloud metadata), private, shared and
// unspecified addresses are not.
func IsPublicAddress(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate() && !sharedAddressSpace.Contains(addr)
}
