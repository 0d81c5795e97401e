// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records routing decisions in append-only sinks.
//
// # Sinks
//
//   - MemorySink: in-process, bounded, resettable
//   - JSONLSink: one JSON object per line, size-rotated, optionally HMAC-chained
//   - SQLiteSink: local database with update/delete blocked by triggers
//   - MultiSink: fan-out to several sinks
//   - Switch: wraps a sink that can be replaced on config reload
//
// A sink failure never blocks routing. Callers write the entry to a
// diagnostic stream with WriteFallback instead.
//
// # Sealing
//
// When a seal secret is configured each JSONL record carries
// seal = HMAC-SHA256(key, prev_seal || "\n" || entry) and the previous seal,
// so Verify detects edited, removed or reordered lines.
//
// # Usage
//
//	sink, closer, err := audit.Open(audit.Options{Kind: "jsonl", Path: path})
//	defer closer.Close()
//	err = sink.Append(ctx, entry)
package audit
