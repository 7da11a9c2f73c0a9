// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package pubsub

import "context"

const (
	// UpdatedEvent signals a new state snapshot.
	UpdatedEvent EventType = "updated"
	// ErrorEvent signals that the published snapshot carries a new error.
	ErrorEvent EventType = "error"
)

type (
	// EventType labels an event.
	EventType string

	// Event is one published payload.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans an event out to subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}

	// Subscriber hands out event channels that close when ctx ends.
	Subscriber[T any] interface {
		Subscribe(context.Context) <-chan Event[T]
	}
)
