// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that processes events.
type Handler func(event *Event)

// Subscription represents a subscription to events.
type Subscription struct {
	// ID uniquely identifies this subscription.
	ID string

	// Handler processes matching events.
	Handler Handler

	// Types limits which event types to handle (nil = all types).
	Types []Type

	// closer tears down channel-backed subscriptions on Unsubscribe.
	closer func()
}

// Emitter broadcasts events to subscribers.
//
// # Description
//
// Subscribers register handler functions, optionally filtered by event
// type. Emit runs handlers synchronously on the emitting goroutine with
// panic recovery; handlers that need decoupling should hand off to their
// own channel (see SubscribeChan). A bounded ring buffer keeps recent
// events so late subscribers can catch up.
//
// # Thread Safety
//
// Emitter is safe for concurrent use.
type Emitter struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	buffer        []Event
	bufferSize    int
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithBufferSize sets the event buffer size.
func WithBufferSize(size int) EmitterOption {
	return func(e *Emitter) {
		e.bufferSize = size
	}
}

// NewEmitter creates a new event emitter.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		subscriptions: make(map[string]*Subscription),
		bufferSize:    256,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.buffer = make([]Event, 0, e.bufferSize)

	return e
}

// Subscribe registers a handler for events.
//
// # Inputs
//
//   - handler: Function to call for each event.
//   - types: Event types to subscribe to (nil = all types).
//
// # Outputs
//
//   - string: Subscription ID for unsubscribing.
func (e *Emitter) Subscribe(handler Handler, types ...Type) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &Subscription{
		ID:      uuid.NewString(),
		Handler: handler,
		Types:   types,
	}

	e.subscriptions[sub.ID] = sub
	return sub.ID
}

// SubscribeChan registers a channel subscriber.
//
// # Description
//
// Returns a buffered channel receiving matching events and the
// subscription id. When the channel is full the event is dropped for
// this subscriber rather than blocking the emitter; slow consumers only
// lose their own events.
//
// # Inputs
//
//   - size: Channel buffer capacity. Values below 1 use 1.
//   - types: Event types to subscribe to (nil = all types).
//
// # Outputs
//
//   - <-chan Event: Delivery channel. Closed by Unsubscribe.
//   - string: Subscription ID for unsubscribing.
func (e *Emitter) SubscribeChan(size int, types ...Type) (<-chan Event, string) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Event, size)

	id := e.Subscribe(func(event *Event) {
		select {
		case ch <- *event:
		default:
			slog.Warn("event dropped for slow subscriber",
				"event_type", event.Type,
				"event_id", event.ID)
		}
	}, types...)

	e.mu.Lock()
	e.subscriptions[id].closer = func() { close(ch) }
	e.mu.Unlock()

	return ch, id
}

// Unsubscribe removes a subscription. Returns true if it existed. For
// channel subscribers the delivery channel is closed.
func (e *Emitter) Unsubscribe(id string) bool {
	e.mu.Lock()
	sub, ok := e.subscriptions[id]
	if ok {
		delete(e.subscriptions, id)
	}
	e.mu.Unlock()

	if ok && sub.closer != nil {
		sub.closer()
	}
	return ok
}

// Emit broadcasts an event to all matching subscribers.
//
// # Description
//
// Fills in the event's ID and Timestamp, buffers it, and invokes every
// matching handler synchronously with panic recovery so one misbehaving
// handler cannot crash the emitter or starve other handlers.
func (e *Emitter) Emit(event Event) {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()

	e.mu.Lock()
	if len(e.buffer) >= e.bufferSize {
		e.buffer = e.buffer[1:]
	}
	e.buffer = append(e.buffer, event)

	subs := make([]*Subscription, 0, len(e.subscriptions))
	for _, sub := range e.subscriptions {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		if matchesType(sub.Types, event.Type) {
			safeInvoke(sub.Handler, &event)
		}
	}
}

// BufferSince returns buffered events emitted after the timestamp,
// oldest first. Useful for reconnecting stream clients.
func (e *Emitter) BufferSince(since time.Time) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Event
	for _, event := range e.buffer {
		if event.Timestamp.After(since) {
			out = append(out, event)
		}
	}
	return out
}

// SubscriptionCount returns the number of active subscriptions.
func (e *Emitter) SubscriptionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscriptions)
}

// safeInvoke invokes a handler with panic recovery.
func safeInvoke(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", r,
			)
		}
	}()
	handler(event)
}

func matchesType(types []Type, t Type) bool {
	if len(types) == 0 {
		return true
	}
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
