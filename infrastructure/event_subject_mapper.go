package infrastructure

import (
	"fmt"

	"wealthreactor/events"
)

// ReferralEventStream is the JetStream stream holding every domain event subject
const ReferralEventStream = "referral_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeUserRegistered:     "referral.users.registered",
	events.EventTypePaymentVerified:    "referral.payments.verified",
	events.EventTypeCommissionCredited: "referral.commissions.credited",
	events.EventTypeRotatorJoined:      "referral.rotator.joined",
	events.EventTypeAgentRegistered:    "referral.agents.registered",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("referral.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"referral.users.registered",
		"referral.payments.verified",
		"referral.commissions.credited",
		"referral.rotator.joined",
		"referral.agents.registered",
	}
}
