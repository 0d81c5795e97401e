// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
)

// Forced values recorded when a caller override decided the route.
const (
	ForcedOnPrem = "onprem"
	ForcedCloud  = "cloud"
)

// =============================================================================
// AUDIT ENTRY
// =============================================================================

// Entry is one routing decision. Entries are append-only: sinks never update
// or delete them.
type Entry struct {
	ID                 string                        `json:"id"`
	Timestamp          time.Time                     `json:"timestamp"`
	TaskCategory       compliance.TaskCategory       `json:"task_category"`
	ModelType          catalog.ModelType             `json:"model_type"`
	ModelID            string                        `json:"model_id"`
	DataClassification compliance.DataClassification `json:"data_classification"`
	TargetEnvironment  compliance.TargetEnvironment  `json:"target_environment"`
	Reason             string                        `json:"reason"`
	Approved           bool                          `json:"approved"`
	Forced             string                        `json:"forced,omitempty"`
	Fallback           bool                          `json:"fallback,omitempty"`
}

// NewID returns a fresh entry identifier.
func NewID() string {
	return uuid.NewString()
}

// ToJSON formats the entry as JSON.
func (e *Entry) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToLogLine formats the entry as a single human-readable line.
func (e *Entry) ToLogLine() string {
	status := "APPROVED"
	if !e.Approved {
		status = "DENIED"
	}
	flags := ""
	if e.Forced != "" {
		flags += " forced=" + e.Forced
	}
	if e.Fallback {
		flags += " fallback"
	}
	return fmt.Sprintf("%s | %s | %s | %s:%s | %s/%s | %s | %q%s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		shortID(e.ID),
		e.TaskCategory,
		e.ModelType,
		e.ModelID,
		e.DataClassification,
		e.TargetEnvironment,
		status,
		e.Reason,
		flags,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// SINK
// =============================================================================

// Sink is an append-only store for routing decisions.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Reader returns the most recent entries, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// WriteFallback writes an entry that could not be stored to w, so the
// decision is still recorded somewhere.
func WriteFallback(w io.Writer, e Entry, cause error) {
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(w, "AUDIT_FALLBACK: error=%v marshal_error=%v entry=%s\n", cause, err, e.ToLogLine())
		return
	}
	fmt.Fprintf(w, "AUDIT_FALLBACK: error=%v entry=%s\n", cause, data)
}

// Discard drops every entry.
type Discard struct{}

// Append implements Sink.
func (Discard) Append(context.Context, Entry) error { return nil }
