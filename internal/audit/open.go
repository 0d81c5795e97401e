// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"fmt"
	"io"
	"strings"
)

// Sink kinds accepted by Open.
const (
	KindJSONL  = "jsonl"
	KindSQLite = "sqlite"
	KindMemory = "memory"
	KindNone   = "none"
)

// Options selects and configures a sink.
type Options struct {
	Kind       string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	// SealSecret is passed through DeriveSealKey for JSONL sinks.
	SealSecret string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the sink described by opts. The returned closer must be closed
// on shutdown; it is never nil.
func Open(opts Options) (Sink, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindJSONL, "":
		s, err := NewJSONLSink(JSONLOptions{
			Path:       opts.Path,
			MaxSizeMB:  opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			SealKey:    DeriveSealKey(opts.SealSecret),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case KindSQLite:
		s, err := NewSQLiteSink(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case KindMemory:
		return NewMemorySink(0), nopCloser{}, nil
	case KindNone:
		return Discard{}, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit sink %q (want jsonl, sqlite, memory or none)", opts.Kind)
	}
}
