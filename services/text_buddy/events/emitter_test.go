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
	"testing"
	"time"
)

func TestEmitter_SubscribeAndEmit(t *testing.T) {
	e := NewEmitter()

	var received []*Event
	e.Subscribe(func(event *Event) {
		received = append(received, event)
	})

	e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: "cs-1"})

	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	got := received[0]
	if got.Type != TypeChangeSetCreated {
		t.Errorf("Type = %v, want %v", got.Type, TypeChangeSetCreated)
	}
	if got.ChangeSetID != "cs-1" {
		t.Errorf("ChangeSetID = %q, want %q", got.ChangeSetID, "cs-1")
	}
	if got.ID == "" {
		t.Error("event ID not filled in")
	}
	if got.Timestamp.IsZero() {
		t.Error("event Timestamp not filled in")
	}
}

func TestEmitter_TypeFilter(t *testing.T) {
	e := NewEmitter()

	var accepted int
	e.Subscribe(func(event *Event) {
		accepted++
	}, TypeModificationAccepted)

	e.Emit(Event{Type: TypeModificationAccepted})
	e.Emit(Event{Type: TypeModificationRejected})
	e.Emit(Event{Type: TypeChangeSetCreated})
	e.Emit(Event{Type: TypeModificationAccepted})

	if accepted != 2 {
		t.Errorf("filtered handler ran %d times, want 2", accepted)
	}
}

func TestEmitter_Unsubscribe(t *testing.T) {
	e := NewEmitter()

	var calls int
	id := e.Subscribe(func(event *Event) { calls++ })

	e.Emit(Event{Type: TypeChangeSetCreated})
	if !e.Unsubscribe(id) {
		t.Fatal("Unsubscribe() = false, want true")
	}
	e.Emit(Event{Type: TypeChangeSetCreated})

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if e.Unsubscribe(id) {
		t.Error("second Unsubscribe() = true, want false")
	}
	if e.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", e.SubscriptionCount())
	}
}

func TestEmitter_PanicRecovery(t *testing.T) {
	e := NewEmitter()

	e.Subscribe(func(event *Event) { panic("handler bug") })
	var calls int
	e.Subscribe(func(event *Event) { calls++ })

	e.Emit(Event{Type: TypeChangeSetCreated})

	if calls != 1 {
		t.Errorf("surviving handler ran %d times, want 1", calls)
	}
}

func TestEmitter_SubscribeChan(t *testing.T) {
	e := NewEmitter()

	ch, id := e.SubscribeChan(4, TypeFileChanged)
	e.Emit(Event{Type: TypeFileChanged, FilePath: "doc.txt"})
	e.Emit(Event{Type: TypeChangeSetCreated})

	select {
	case got := <-ch:
		if got.FilePath != "doc.txt" {
			t.Errorf("FilePath = %q, want %q", got.FilePath, "doc.txt")
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	e.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}
}

func TestEmitter_SubscribeChanDropsWhenFull(t *testing.T) {
	e := NewEmitter()

	ch, _ := e.SubscribeChan(1)
	e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: "first"})
	e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: "dropped"})

	got := <-ch
	if got.ChangeSetID != "first" {
		t.Errorf("ChangeSetID = %q, want %q", got.ChangeSetID, "first")
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected second event %q; emitter should drop, not queue", extra.ChangeSetID)
	default:
	}
}

func TestEmitter_BufferSince(t *testing.T) {
	e := NewEmitter()

	e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: "old"})
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: "new"})

	got := e.BufferSince(cutoff)
	if len(got) != 1 {
		t.Fatalf("BufferSince() = %d events, want 1", len(got))
	}
	if got[0].ChangeSetID != "new" {
		t.Errorf("ChangeSetID = %q, want %q", got[0].ChangeSetID, "new")
	}
}

func TestEmitter_BufferEviction(t *testing.T) {
	e := NewEmitter(WithBufferSize(3))

	for _, id := range []string{"a", "b", "c", "d"} {
		e.Emit(Event{Type: TypeChangeSetCreated, ChangeSetID: id})
	}

	got := e.BufferSince(time.Time{})
	if len(got) != 3 {
		t.Fatalf("buffer holds %d events, want 3", len(got))
	}
	if got[0].ChangeSetID != "b" || got[2].ChangeSetID != "d" {
		t.Errorf("buffer = [%s..%s], want [b..d]", got[0].ChangeSetID, got[2].ChangeSetID)
	}
}
