package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	contractsv1 "ccdepot/contracts/events/v1"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribersOfTopic(t *testing.T) {
	bus := NewBus(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contractsv1.Envelope, 1)
	bus.Subscribe(ctx, "item.license_changed", "test", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	})
	bus.Subscribe(ctx, "other", "test", func(context.Context, contractsv1.Envelope) error {
		return errors.New("must not be called")
	})

	require.NoError(t, bus.Publish(ctx, "item.license_changed", contractsv1.Envelope{EventID: "evt-1"}))

	select {
	case event := <-received:
		require.Equal(t, "evt-1", event.EventID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(0, nil)
	require.NoError(t, bus.Publish(context.Background(), "none", contractsv1.Envelope{EventID: "evt-2"}))
}

func TestBusRemovesSubscriberOnCancel(t *testing.T) {
	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	bus.Subscribe(ctx, "topic", "test", func(context.Context, contractsv1.Envelope) error { return nil })
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers["topic"]) == 0
	}, time.Second, 10*time.Millisecond)
}
