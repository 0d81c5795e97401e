// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
)

func sampleEntry(modelID string) Entry {
	return Entry{
		ID:                 NewID(),
		Timestamp:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		TaskCategory:       compliance.CategoryCode,
		ModelType:          catalog.ModelTypeOnPrem,
		ModelID:            modelID,
		DataClassification: compliance.ClassificationConfidential,
		TargetEnvironment:  compliance.EnvironmentProduction,
		Reason:             "Code tasks targeting production require on-premises processing",
		Approved:           true,
	}
}

// =============================================================================
// MEMORY / MULTI
// =============================================================================

func TestMemorySink(t *testing.T) {
	m := NewMemorySink(2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Append(ctx, sampleEntry(id)))
	}

	entries := m.Entries()
	require.Len(t, entries, 2, "oldest entry dropped at capacity")
	require.Equal(t, "b", entries[0].ModelID)

	recent, err := m.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "c", recent[0].ModelID)

	m.Reset()
	require.Zero(t, m.Len())
}

func TestMemorySinkConcurrent(t *testing.T) {
	m := NewMemorySink(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Append(context.Background(), sampleEntry("x"))
		}()
	}
	wg.Wait()
	require.Equal(t, 50, m.Len())
}

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, Entry) error { return f.err }

func TestMultiSinkAttemptsAll(t *testing.T) {
	mem := NewMemorySink(0)
	boom := errors.New("disk full")
	multi := MultiSink{failingSink{boom}, mem}

	err := multi.Append(context.Background(), sampleEntry("m"))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, mem.Len(), "later sinks still receive the entry")

	require.NoError(t, MultiSink{mem}.Append(context.Background(), sampleEntry("n")))
}

func TestWriteFallback(t *testing.T) {
	var buf bytes.Buffer
	e := sampleEntry("qwen")
	WriteFallback(&buf, e, errors.New("sink down"))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "AUDIT_FALLBACK: error=sink down entry={"))
	require.Contains(t, out, `"model_id":"qwen"`)
	require.Contains(t, out, `"model_type":"onprem"`)
}

func TestEntryToLogLine(t *testing.T) {
	e := sampleEntry("gpu/qwen")
	e.ID = "0123456789abcdef"
	e.Fallback = true
	e.Forced = ForcedCloud

	line := e.ToLogLine()
	require.Contains(t, line, "01234567 |")
	require.Contains(t, line, "onprem:gpu/qwen")
	require.Contains(t, line, "confidential/production")
	require.Contains(t, line, "forced=cloud fallback")
}

// =============================================================================
// JSONL
// =============================================================================

func TestJSONLSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "routing.jsonl")
	s, err := NewJSONLSink(JSONLOptions{Path: path})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	first, second := sampleEntry("one"), sampleEntry("two")
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	entries, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, first, entries[0])

	recent, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "two", recent[0].ModelID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "\n"), "one line per entry")
	require.NotContains(t, string(data), `"seal"`, "unsealed sink writes no seal")
}

func TestReadJSONLMissingFile(t *testing.T) {
	entries, err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJSONLSealAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.jsonl")
	key := DeriveSealKey("correct horse battery staple")

	s, err := NewJSONLSink(JSONLOptions{Path: path, SealKey: key})
	require.NoError(t, err)
	require.True(t, s.Sealed())
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(ctx, sampleEntry(id)))
	}
	require.NoError(t, s.Close())

	// Reopening resumes the chain.
	s2, err := NewJSONLSink(JSONLOptions{Path: path, SealKey: key})
	require.NoError(t, err)
	require.NoError(t, s2.Append(ctx, sampleEntry("d")))
	require.NoError(t, s2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	report, err := Verify(f, key)
	f.Close()
	require.NoError(t, err)
	require.Equal(t, 4, report.Records)
	require.Equal(t, 4, report.Sealed)
	require.Zero(t, report.FirstBadLine)
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.jsonl")
	key := DeriveSealKey("secret")

	s, err := NewJSONLSink(JSONLOptions{Path: path, SealKey: key})
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(context.Background(), sampleEntry(id)))
	}
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	t.Run("edited", func(t *testing.T) {
		edited := strings.Replace(lines[1], `"model_type":"onprem"`, `"model_type":"cloud"`, 1)
		input := strings.Join([]string{lines[0], edited, lines[2]}, "\n")
		report, err := Verify(strings.NewReader(input), key)
		require.ErrorIs(t, err, ErrSealMismatch)
		require.Equal(t, 2, report.FirstBadLine)
	})

	t.Run("removed", func(t *testing.T) {
		input := strings.Join([]string{lines[0], lines[2]}, "\n")
		report, err := Verify(strings.NewReader(input), key)
		require.ErrorIs(t, err, ErrSealMismatch)
		require.Equal(t, 2, report.FirstBadLine)
	})

	t.Run("wrong_key", func(t *testing.T) {
		_, err := Verify(strings.NewReader(string(data)), DeriveSealKey("other"))
		require.ErrorIs(t, err, ErrSealMismatch)
	})

	t.Run("no_key", func(t *testing.T) {
		_, err := Verify(strings.NewReader(string(data)), nil)
		require.Error(t, err)
	})
}

func TestDeriveSealKey(t *testing.T) {
	require.Nil(t, DeriveSealKey(""))
	require.Len(t, DeriveSealKey("x"), 32)
	require.Equal(t, DeriveSealKey("x"), DeriveSealKey("x"))
}

// =============================================================================
// SQLITE
// =============================================================================

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	first := sampleEntry("one")
	second := sampleEntry("two")
	second.ModelType = catalog.ModelTypeCloud
	second.Fallback = true
	second.Forced = ForcedOnPrem
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	recent, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, second, recent[0])
	require.Equal(t, first, recent[1])

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSQLiteSinkIsAppendOnly(t *testing.T) {
	s, err := NewSQLiteSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer s.Close()

	e := sampleEntry("one")
	require.NoError(t, s.Append(context.Background(), e))
	require.Error(t, s.Append(context.Background(), e), "duplicate id rejected")

	_, err = s.db.Exec("DELETE FROM audit_entries")
	require.Error(t, err)
	_, err = s.db.Exec("UPDATE audit_entries SET approved = 0")
	require.Error(t, err)
}

// =============================================================================
// OPEN
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{KindJSONL, false},
		{KindSQLite, false},
		{KindMemory, false},
		{KindNone, false},
		{"kafka", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			sink, closer, err := Open(Options{Kind: tt.kind, Path: filepath.Join(dir, tt.kind+".log")})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, sink.Append(context.Background(), sampleEntry("x")))
			require.NoError(t, closer.Close())
		})
	}
}

// =============================================================================
// SWITCH
// =============================================================================

func TestSwitchReplaceKeepsSealChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.jsonl")
	opts := Options{Kind: KindJSONL, Path: path, SealSecret: "reload"}
	ctx := context.Background()

	sink, closer, err := Open(opts)
	require.NoError(t, err)
	sw := NewSwitch(sink, closer)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				assert.NoError(t, sw.Append(ctx, sampleEntry("x")))
			}
		}()
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, sw.Replace(func() (Sink, io.Closer, error) { return Open(opts) }))
	}
	wg.Wait()
	require.NoError(t, sw.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	report, err := Verify(f, DeriveSealKey("reload"))
	require.NoError(t, err)
	require.Equal(t, 100, report.Records)
	require.Equal(t, 100, report.Sealed)
}

func TestSwitchReplaceFailureKeepsCurrent(t *testing.T) {
	mem := NewMemorySink(0)
	sw := NewSwitch(mem, nil)

	err := sw.Replace(func() (Sink, io.Closer, error) { return nil, nil, errors.New("no disk") })
	require.Error(t, err)
	require.NoError(t, sw.Append(context.Background(), sampleEntry("a")))
	require.Equal(t, 1, mem.Len())

	next := NewMemorySink(0)
	require.NoError(t, sw.Replace(func() (Sink, io.Closer, error) { return next, nil, nil }))
	require.NoError(t, sw.Append(context.Background(), sampleEntry("b")))
	require.Equal(t, 1, mem.Len())
	require.Equal(t, 1, next.Len())

	require.NoError(t, sw.Close())
	require.NoError(t, sw.Append(context.Background(), sampleEntry("c")))
	require.Equal(t, 1, next.Len(), "appends after Close are discarded")
}
