package application

import (
	"wealthreactor/events"
)

// EventSubscriber registers in-process event handlers
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// RegisterApplicationSubscriptions registers all application-level event subscriptions
func RegisterApplicationSubscriptions(subscriber EventSubscriber, uowFactory UnitOfWorkFactory) *WebhookNotifier {
	notifier := NewWebhookNotifier(uowFactory)
	subscriber.Subscribe(events.EventTypeAgentRegistered, notifier.HandleAgentRegistered)
	return notifier
}
