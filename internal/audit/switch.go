// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"io"
	"sync"
)

// Switch is a Sink whose backing sink can be replaced while routing continues.
// Appends hold a read lock; Replace holds the write lock while the new sink is
// opened, so a JSONL seal chain resumes from the last line the old sink wrote.
type Switch struct {
	mu     sync.RWMutex
	sink   Sink
	closer io.Closer
}

// NewSwitch wraps sink. closer, when non-nil, is closed when the sink is
// replaced or the Switch is closed.
func NewSwitch(sink Sink, closer io.Closer) *Switch {
	if sink == nil {
		sink = Discard{}
	}
	return &Switch{sink: sink, closer: closer}
}

// Append implements Sink.
func (s *Switch) Append(ctx context.Context, e Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sink.Append(ctx, e)
}

// Replace opens a new sink with open and installs it. On error the current
// sink stays in place. The old sink is closed after the swap.
func (s *Switch) Replace(open func() (Sink, io.Closer, error)) error {
	s.mu.Lock()
	sink, closer, err := open()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	old := s.closer
	s.sink, s.closer = sink, closer
	s.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Close closes the current sink. Later appends are discarded.
func (s *Switch) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	closer := s.closer
	s.sink, s.closer = Discard{}, nil
	if closer != nil {
		return closer.Close()
	}
	return nil
}
