package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wealthreactor/events"
	"wealthreactor/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "wealthreactor"

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher dispatches events to in-process handlers and then to NATS
type NATSEventPublisher struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	local         *events.Bus
}

// NewNATSEventPublisher creates a new NATS event publisher. Local handlers are
// registered on the bus and run whether or not the NATS publish succeeds.
func NewNATSEventPublisher(publisher MessagePublisher, subjectMapper *EventSubjectMapper, local *events.Bus) *NATSEventPublisher {
	if local == nil {
		local = events.NewBus()
	}
	return &NATSEventPublisher{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		local:         local,
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	_ = p.local.Publish(event)

	subject := p.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.publisher.Publish(ctx, subject, envelopeData); err != nil {
		// No stream bound to the subject yet; the event is dropped
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if metrics := observability.GetMetrics(); metrics != nil {
		metrics.RecordEventPublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// RegisterLocalHandler registers a handler that will be invoked locally for events
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler events.Handler) {
	p.local.Subscribe(eventType, handler)
}

// EnsureReferralEventStream ensures the referral_events stream exists with the mapped subjects
func (p *NATSEventPublisher) EnsureReferralEventStream(client *NATSClient) error {
	return client.EnsureStream(ReferralEventStream, p.subjectMapper.GetAllSubjects())
}
