package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserRegistered     EventType = "user_registered"
	EventTypePaymentVerified    EventType = "payment_verified"
	EventTypeCommissionCredited EventType = "commission_credited"
	EventTypeRotatorJoined      EventType = "rotator_joined"
	EventTypeAgentRegistered    EventType = "agent_registered"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserRegisteredEvent is emitted when a username is reserved
type UserRegisteredEvent struct {
	Username           string  `json:"username"`
	ReferrerUsername   *string `json:"referrerUsername,omitempty"`
	ReferrerL2Username *string `json:"referrerL2Username,omitempty"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// PaymentVerifiedEvent is emitted once per user when the paid flag flips
type PaymentVerifiedEvent struct {
	Username string `json:"username"`
	Wallet   string `json:"wallet"`
	TxHash   string `json:"txHash,omitempty"`
}

func (e PaymentVerifiedEvent) Type() EventType {
	return EventTypePaymentVerified
}

// CommissionCreditedEvent is emitted for each commission row actually inserted
type CommissionCreditedEvent struct {
	EarnerUsername   string `json:"earnerUsername"`
	ReferralUsername string `json:"referralUsername"`
	Level            int    `json:"level"`
	Amount           string `json:"amount"`
}

func (e CommissionCreditedEvent) Type() EventType {
	return EventTypeCommissionCredited
}

// RotatorJoinedEvent is emitted when a rotator lease is granted or extended
type RotatorJoinedEvent struct {
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
	Extended  bool   `json:"extended"`
}

func (e RotatorJoinedEvent) Type() EventType {
	return EventTypeRotatorJoined
}

// AgentRegisteredEvent is emitted when a new agent is stored
type AgentRegisteredEvent struct {
	AgentID           string  `json:"agentId"`
	Wallet            string  `json:"wallet"`
	ReferrerAgentID   *string `json:"referrerAgentId,omitempty"`
	ReferrerL2AgentID *string `json:"referrerL2AgentId,omitempty"`
}

func (e AgentRegisteredEvent) Type() EventType {
	return EventTypeAgentRegistered
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event) error

// Bus manages in-process event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish dispatches the event to all registered handlers without blocking the caller
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to local handlers")

	// Handlers run detached from the request that produced the event
	ctx := context.Background()
	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			if err := h(ctx, event); err != nil {
				log.WithFields(log.Fields{
					"eventType":    event.Type(),
					"handlerIndex": handlerIndex,
					"error":        err,
				}).Error("Event handler failed")
			}
		}(handler, i)
	}
	return nil
}

// Wait blocks until every dispatched handler has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}
