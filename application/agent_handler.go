package application

import (
	"context"
	"fmt"

	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/domain/services"
)

// AgentHandler runs the programmatic agent API use cases
type AgentHandler interface {
	Register(ctx context.Context, params entities.RegisterAgentParams) (*entities.Agent, bool, error)
	GetLink(ctx context.Context, agentID string) (*entities.AgentLink, error)
	Stats(ctx context.Context, agentID string) (*entities.AgentStats, error)
	SetWebhook(ctx context.Context, agentID, webhookURL string) (*entities.Agent, error)
}

type agentHandler struct {
	uowFactory UnitOfWorkFactory
	pricing    entities.Pricing
	baseURL    string
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(uowFactory UnitOfWorkFactory, pricing entities.Pricing, baseURL string) AgentHandler {
	return &agentHandler{
		uowFactory: uowFactory,
		pricing:    pricing,
		baseURL:    baseURL,
	}
}

func (h *agentHandler) service(uow UnitOfWork) interfaces.AgentService {
	return services.NewAgentService(uow.AgentRepository(), uow.EventBus(), h.pricing, h.baseURL)
}

// Register stores a new agent, or returns the existing one with created=false
func (h *agentHandler) Register(ctx context.Context, params entities.RegisterAgentParams) (*entities.Agent, bool, error) {
	var agent *entities.Agent
	var created bool
	err := h.write(ctx, func(agents interfaces.AgentService) error {
		var err error
		agent, created, err = agents.Register(ctx, params)
		return err
	})
	return agent, created, err
}

// GetLink returns the agent's referral link
func (h *agentHandler) GetLink(ctx context.Context, agentID string) (*entities.AgentLink, error) {
	var link *entities.AgentLink
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		link, err = h.service(uow).GetLink(ctx, agentID)
		return err
	})
	return link, err
}

// Stats returns the agent's referral tree and earnings
func (h *agentHandler) Stats(ctx context.Context, agentID string) (*entities.AgentStats, error) {
	var stats *entities.AgentStats
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		stats, err = h.service(uow).Stats(ctx, agentID)
		return err
	})
	return stats, err
}

// SetWebhook stores the agent's notification URL
func (h *agentHandler) SetWebhook(ctx context.Context, agentID, webhookURL string) (*entities.Agent, error) {
	var agent *entities.Agent
	err := h.write(ctx, func(agents interfaces.AgentService) error {
		var err error
		agent, err = agents.SetWebhook(ctx, agentID, webhookURL)
		return err
	})
	return agent, err
}

func (h *agentHandler) write(ctx context.Context, fn func(agents interfaces.AgentService) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(h.service(uow)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
