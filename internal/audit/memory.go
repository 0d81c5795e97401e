// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"errors"
	"sync"
)

// MemorySink keeps entries in process memory. It is the default for tests and
// for `serve` without a configured path.
type MemorySink struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewMemorySink creates a sink that keeps at most max entries (0 = unbounded).
// When full the oldest entries are dropped.
func NewMemorySink(max int) *MemorySink {
	return &MemorySink{max: max}
}

// Append implements Sink.
func (m *MemorySink) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = append([]Entry(nil), m.entries[len(m.entries)-m.max:]...)
	}
	return nil
}

// Entries returns a copy of all entries, oldest first.
func (m *MemorySink) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Recent implements Reader.
func (m *MemorySink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.entries, limit), nil
}

// Len returns the number of stored entries.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Reset drops every entry.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

// newestFirst returns up to limit entries from the end of entries, reversed.
// limit <= 0 returns everything.
func newestFirst(entries []Entry, limit int) []Entry {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// =============================================================================
// MULTI SINK
// =============================================================================

// MultiSink appends to every sink in order and reports all failures.
type MultiSink []Sink

// Append implements Sink. Every sink is attempted even if an earlier one fails.
func (m MultiSink) Append(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
