package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wealthreactor/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher records what it was asked to publish
type MockEventPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestNATSTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{}
	publisher := NewNATSTransactionalPublisher(mockPublisher)

	first := events.PaymentVerifiedEvent{Username: "alice", Wallet: "0xabc"}
	second := events.CommissionCreditedEvent{EarnerUsername: "bob", ReferralUsername: "alice", Level: 1, Amount: "6.00"}
	require.NoError(t, publisher.Publish(first))
	require.NoError(t, publisher.Publish(second))

	assert.Empty(t, mockPublisher.PublishedEvents, "events are held until flush")

	require.NoError(t, publisher.Flush(context.Background()))

	assert.Equal(t, []events.Event{first, second}, mockPublisher.PublishedEvents)

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 2, "flush empties the queue")
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{}
	publisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, publisher.Publish(events.UserRegisteredEvent{Username: "alice"}))
	publisher.Discard()
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Empty(t, mockPublisher.PublishedEvents)
}

func TestNATSTransactionalPublisher_FlushIgnoresPublishErrors(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{PublishError: errors.New("nats down")}
	publisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, publisher.Publish(events.UserRegisteredEvent{Username: "alice"}))

	assert.NoError(t, publisher.Flush(context.Background()))
}
