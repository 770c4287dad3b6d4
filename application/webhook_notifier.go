package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"wealthreactor/application/dto"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/services"
	"wealthreactor/events"

	log "github.com/sirupsen/logrus"
)

// WebhookTimeout bounds each agent webhook delivery
const WebhookTimeout = 5 * time.Second

// WebhookNotifier tells referrer agents about new referrals
type WebhookNotifier struct {
	uowFactory UnitOfWorkFactory
	client     *http.Client
	now        func() time.Time
}

// NewWebhookNotifier creates a notifier delivering with a bounded HTTP client
// that only connects to public addresses
func NewWebhookNotifier(uowFactory UnitOfWorkFactory) *WebhookNotifier {
	return &WebhookNotifier{
		uowFactory: uowFactory,
		client:     newPublicOnlyClient(WebhookTimeout),
		now:        time.Now,
	}
}

// newPublicOnlyClient checks the resolved peer of every connection, so DNS
// names pointing at internal hosts are refused as well as literals
func newPublicOnlyClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: refuseNonPublic,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func refuseNonPublic(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid webhook address %q: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("invalid webhook address %q: %w", address, err)
	}
	if !services.IsPublicAddress(addr) {
		return fmt.Errorf("refusing webhook connection to non-public address %s", addr)
	}
	return nil
}

// HandleAgentRegistered notifies the new agent's L1 and L2 referrers. Delivery is
// best effort: failures are logged and never returned.
func (n *WebhookNotifier) HandleAgentRegistered(ctx context.Context, event events.Event) error {
	registered, err := AssertEventType[events.AgentRegisteredEvent](event, "AgentRegisteredEvent")
	if err != nil {
		return err
	}

	targets := []struct {
		agentID *string
		event   string
		level   int
	}{
		{registered.ReferrerAgentID, dto.WebhookEventNewL1Referral, 1},
		{registered.ReferrerL2AgentID, dto.WebhookEventNewL2Referral, 2},
	}

	for _, target := range targets {
		if target.agentID == nil {
			continue
		}

		agent, err := n.loadAgent(ctx, *target.agentID)
		if err != nil {
			log.WithFields(log.Fields{
				"agentId": *target.agentID,
				"error":   err,
			}).Warn("Failed to load agent for webhook")
			continue
		}
		if agent == nil || !agent.HasWebhook() {
			continue
		}

		n.deliver(ctx, *agent.WebhookURL, dto.AgentWebhookDTO{
			Event:     target.event,
			AgentID:   agent.AgentID,
			Referral:  registered.AgentID,
			Level:     target.level,
			Timestamp: n.now().UTC(),
		})
	}

	return nil
}

func (n *WebhookNotifier) loadAgent(ctx context.Context, agentID string) (*entities.Agent, error) {
	var agent *entities.Agent
	err := readOnly(ctx, n.uowFactory, func(uow UnitOfWork) error {
		var err error
		agent, err = uow.AgentRepository().GetByAgentID(ctx, agentID)
		return err
	})
	return agent, err
}

func (n *WebhookNotifier) deliver(ctx context.Context, url string, payload dto.AgentWebhookDTO) {
	fields := log.Fields{
		"agentId": payload.AgentID,
		"event":   payload.Event,
		"url":     url,
	}

	if err := n.post(ctx, url, payload); err != nil {
		fields["error"] = err
		log.WithFields(fields).Warn("Agent webhook delivery failed")
		return
	}
	log.WithFields(fields).Info("Agent webhook delivered")
}

func (n *WebhookNotifier) post(ctx context.Context, url string, payload dto.AgentWebhookDTO) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "wealthreactor-webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
