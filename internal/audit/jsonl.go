// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Default JSONL rotation settings.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
)

// JSONLOptions configures a JSONLSink.
type JSONLOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	// SealKey enables HMAC chaining when non-empty. See DeriveSealKey.
	SealKey []byte
}

// JSONLSink appends one JSON object per line to a size-rotated file.
// Each entry is written with a single Write call so a line is never split.
type JSONLSink struct {
	mu       sync.Mutex
	path     string
	out      *lumberjack.Logger
	key      []byte
	lastSeal string
}

// NewJSONLSink opens (or creates) the log at opts.Path. When sealing is
// enabled the chain resumes from the last record already in the file.
func NewJSONLSink(opts JSONLOptions) (*JSONLSink, error) {
	if opts.Path == "" {
		return nil, errors.New("jsonl sink: path is required")
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = DefaultMaxSizeMB
	}
	if opts.MaxBackups < 0 {
		opts.MaxBackups = DefaultMaxBackups
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	s := &JSONLSink{
		path: opts.Path,
		key:  opts.SealKey,
		out: &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   false,
		},
	}

	if len(s.key) > 0 {
		last, err := lastSeal(opts.Path)
		if err != nil {
			return nil, err
		}
		s.lastSeal = last
	}
	return s, nil
}

// Path returns the active log file.
func (s *JSONLSink) Path() string {
	return s.path
}

// Sealed reports whether records are HMAC-chained.
func (s *JSONLSink) Sealed() bool {
	return len(s.key) > 0
}

// Append implements Sink.
func (s *JSONLSink) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{Entry: e}
	if len(s.key) > 0 {
		entryJSON, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode audit entry: %w", err)
		}
		rec.PrevSeal = s.lastSeal
		rec.Seal = computeSeal(s.key, s.lastSeal, entryJSON)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := s.out.Write(line); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	if rec.Seal != "" {
		s.lastSeal = rec.Seal
	}
	return nil
}

// Recent implements Reader over the active file (rotated backups are not read).
func (s *JSONLSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := ReadJSONL(s.path)
	if err != nil {
		return nil, err
	}
	return newestFirst(entries, limit), nil
}

// Close closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}

// ReadJSONL reads every entry in a JSONL audit file, oldest first.
// A missing file yields no entries.
func ReadJSONL(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return entries, fmt.Errorf("audit log line %d: %w", line, err)
		}
		entries = append(entries, rec.Entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// lastSeal returns the seal of the last record in path, or "" if there is none.
func lastSeal(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	last := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		last = rec.Seal
	}
	return last, scanner.Err()
}
