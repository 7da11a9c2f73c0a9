// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)
	broker.Publish(UpdatedEvent, "hello")

	select {
	case ev := <-events:
		assert.Equal(t, UpdatedEvent, ev.Type)
		assert.Equal(t, "hello", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroker_ContextCancelUnsubscribes(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroker_FullBufferDropsEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](2)
	defer broker.Shutdown()

	events := broker.Subscribe(context.Background())
	for i := 0; i < 5; i++ {
		broker.Publish(UpdatedEvent, i)
	}

	assert.Len(t, events, 2)
	assert.Equal(t, 0, (<-events).Payload)
	assert.Equal(t, 1, (<-events).Payload)
}

func TestBroker_ShutdownClosesSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	events := broker.Subscribe(context.Background())

	broker.Shutdown()
	broker.Shutdown()

	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 0, broker.SubscriberCount())

	late := broker.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok, "subscribing after shutdown yields a closed channel")

	broker.Publish(UpdatedEvent, 1)
}

func TestBroker_ConcurrentShutdown(t *testing.T) {
	broker := NewBroker[int]()
	events := broker.Subscribe(context.Background())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			broker.Shutdown()
		}()
	}
	wg.Wait()

	_, ok := <-events
	assert.False(t, ok)
	assert.Zero(t, broker.SubscriberCount())
}
