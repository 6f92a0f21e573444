// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_SeedAndRead(t *testing.T) {
	m := NewMemory()
	m.Seed("doc.txt", "hello")

	got, err := m.ReadText(context.Background(), "doc.txt")
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadText() = %q, want %q", got, "hello")
	}
	if m.WriteCalls() != 0 {
		t.Errorf("WriteCalls() = %d, want 0 after Seed", m.WriteCalls())
	}
}

func TestMemory_ReadMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.ReadText(context.Background(), "missing.txt")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("ReadText() error = %v, want ErrNotExist", err)
	}
}

func TestMemory_WriteCounting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.WriteText(ctx, "doc.txt", "v"); err != nil {
			t.Fatalf("WriteText() #%d error = %v", i+1, err)
		}
	}
	if m.WriteCalls() != 3 {
		t.Errorf("WriteCalls() = %d, want 3", m.WriteCalls())
	}
}

func TestMemory_FailWriteAt(t *testing.T) {
	m := NewMemory()
	m.FailWriteAt(2)
	ctx := context.Background()

	if err := m.WriteText(ctx, "a.txt", "one"); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := m.WriteText(ctx, "b.txt", "two"); err == nil {
		t.Fatal("second write succeeded, want injected failure")
	}
	if _, ok := m.Content("b.txt"); ok {
		t.Error("failed write still stored content")
	}
	if err := m.WriteText(ctx, "c.txt", "three"); err != nil {
		t.Errorf("third write failed: %v", err)
	}
}

func TestMemory_FailWritesTo(t *testing.T) {
	m := NewMemory()
	injected := errors.New("disk full")
	m.FailWritesTo("bad.txt", injected)
	ctx := context.Background()

	if err := m.WriteText(ctx, "ok.txt", "x"); err != nil {
		t.Fatalf("write to ok.txt failed: %v", err)
	}
	err := m.WriteText(ctx, "bad.txt", "x")
	if !errors.Is(err, injected) {
		t.Errorf("WriteText() error = %v, want %v", err, injected)
	}
}
