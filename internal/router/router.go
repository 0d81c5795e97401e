// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
	"github.com/jeranaias/rigrun-ide/internal/util"
)

// ErrNoConfigSource is returned by New when Options.Config is nil.
var ErrNoConfigSource = errors.New("router: a compliance config source is required")

// Options configures a Router. Only Config is required.
type Options struct {
	// Config is read on every Route call.
	Config ConfigSource

	// OnPrem lists reachable on-prem models. Nil means none are ever available.
	OnPrem Availability

	// Cloud is the cloud catalog. Nil means catalog.DefaultCloud().
	Cloud *catalog.Cloud

	// Audit receives one entry per decision when auditing is enabled.
	// Nil discards entries.
	Audit audit.Sink

	// Classifier overrides the built-in task classifier.
	Classifier *compliance.Classifier

	// CodeMarkers overrides DefaultCodeMarkers.
	CodeMarkers []string

	// DefaultCloudModel replaces the catalog's recommended model for tasks
	// with no provider preference.
	DefaultCloudModel string

	// Diagnostics receives audit entries that the sink rejected.
	// Nil means os.Stderr.
	Diagnostics io.Writer

	// Now is the clock used for audit timestamps.
	Now func() time.Time
}

// Router turns a RoutingContext into a RoutingResult. It keeps no per-call
// state and is safe for concurrent use.
type Router struct {
	config       ConfigSource
	onprem       Availability
	cloud        *catalog.Cloud
	sink         audit.Sink
	classifier   *compliance.Classifier
	codeMarkers  []string
	defaultCloud string
	diagnostics  io.Writer
	now          func() time.Time

	stats struct {
		total, onprem, cloud, fallbacks, forced, overridden, auditFailures atomic.Int64
	}
}

// New builds a Router. It fails when Config is missing or the cloud catalog
// is empty.
func New(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, ErrNoConfigSource
	}

	r := &Router{
		config:       opts.Config,
		onprem:       opts.OnPrem,
		cloud:        opts.Cloud,
		sink:         opts.Audit,
		classifier:   opts.Classifier,
		defaultCloud: strings.TrimSpace(opts.DefaultCloudModel),
		diagnostics:  opts.Diagnostics,
		now:          opts.Now,
	}
	if r.onprem == nil {
		r.onprem = onprem.Static(nil)
	}
	if r.cloud == nil {
		r.cloud = catalog.DefaultCloud()
	}
	if r.cloud.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if r.sink == nil {
		r.sink = audit.Discard{}
	}
	if r.classifier == nil {
		r.classifier = compliance.DefaultClassifier()
	}
	if r.diagnostics == nil {
		r.diagnostics = os.Stderr
	}
	if r.now == nil {
		r.now = time.Now
	}

	markers := opts.CodeMarkers
	if len(markers) == 0 {
		markers = DefaultCodeMarkers
	}
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			r.codeMarkers = append(r.codeMarkers, m)
		}
	}

	return r, nil
}

// Classifier returns the task classifier in use.
func (r *Router) Classifier() *compliance.Classifier {
	return r.classifier
}

// Catalog returns the cloud catalog.
func (r *Router) Catalog() *catalog.Cloud {
	return r.cloud
}

// Available lists the reachable on-prem models.
func (r *Router) Available(ctx context.Context) []catalog.OnPremModel {
	return r.onprem.Available(ctx)
}

// =============================================================================
// ROUTE
// =============================================================================

// Route decides where rc.Task runs. Unavailability never fails the call: it
// degrades to cloud and records why in ComplianceNotes. The only error is
// catalog.ErrEmptyCatalog.
//
// When auditing is enabled the entry is appended before Route returns. A sink
// failure is written to the diagnostics stream and does not fail the call.
func (r *Router) Route(ctx context.Context, rc RoutingContext) (RoutingResult, error) {
	// Fresh read on every call; never cached.
	stored, onPremEnabled := r.config.Snapshot()
	cfg := stored.WithOverrides(rc.DataClassification, rc.TargetEnvironment)

	// ========================================================================
	// DECISION ORDER (DO NOT REORDER):
	// 1. Compliance policy (or bypass when compliance is disabled)
	// 2. Caller overrides: force on-prem > force cloud if allowed > policy
	// 3. On-prem availability: disabled or empty falls back to cloud
	// 4. Audit entry appended before return
	// ========================================================================

	var decision compliance.Decision
	if cfg.Enabled {
		decision = compliance.EvaluatePolicy(r.classifier, rc.Task, cfg)
	} else {
		decision = compliance.Decision{
			Required: false,
			Category: r.classifier.Classify(rc.Task),
			Reason:   NoteComplianceDisabled,
		}
	}

	res := RoutingResult{
		Category:        decision.Category,
		Required:        decision.Required,
		Reason:          decision.Reason,
		ComplianceNotes: []string{decision.Reason},
	}
	note := func(n string) {
		res.ComplianceNotes = append(res.ComplianceNotes, n)
	}

	forced := ""
	useOnPrem := decision.Required
	switch {
	case rc.ForceOnPrem:
		useOnPrem = true
		forced = audit.ForcedOnPrem
		if !decision.Required {
			res.Reason = NoteForcedOnPrem
		}
		note(NoteForcedOnPrem)
	case rc.ForceCloud && !decision.Required:
		useOnPrem = false
		forced = audit.ForcedCloud
		res.Reason = NoteForcedCloud
		note(NoteForcedCloud)
	case rc.ForceCloud && decision.Required:
		useOnPrem = true
		r.stats.overridden.Add(1)
		note(NoteCloudOverridden)
	}

	if useOnPrem {
		switch {
		case !onPremEnabled:
			note(NoteOnPremDisabled)
			res.Reason = NoteOnPremDisabled
			res.Fallback = true
		default:
			if m, ok := r.selectOnPrem(ctx, decision.Category, rc.UserPreferredModel); ok {
				res.ModelType = catalog.ModelTypeOnPrem
				res.ModelID = m.ID
				res.Model = m
			} else {
				note(NoteNoOnPremModel)
				res.Reason = NoteNoOnPremModel
				res.Fallback = true
			}
		}
	}

	if res.Model == nil {
		m, honoured, err := r.selectCloud(decision.Category, rc.UserPreferredModel)
		if err != nil {
			return RoutingResult{}, err
		}
		if rc.UserPreferredModel != "" && !honoured && !res.Fallback {
			note(NotePreferredUnknown)
		}
		res.ModelType = catalog.ModelTypeCloud
		res.ModelID = m.ID
		res.Model = m
	}

	if cfg.AuditEnabled {
		entry := audit.Entry{
			ID:                 audit.NewID(),
			Timestamp:          r.now().UTC(),
			TaskCategory:       decision.Category,
			ModelType:          res.ModelType,
			ModelID:            res.ModelID,
			DataClassification: cfg.DataClassification,
			TargetEnvironment:  cfg.TargetEnvironment,
			Reason:             res.Reason,
			Approved:           true,
			Forced:             forced,
			Fallback:           res.Fallback,
		}
		res.AuditLog = &entry
		r.emit(ctx, entry)
	}

	r.record(res, forced)

	log.Printf("ROUTING: task=%q category=%s class=%s env=%s -> %s:%s required=%t fallback=%t",
		util.TruncateRunes(rc.Task, 50),
		decision.Category,
		cfg.DataClassification,
		cfg.TargetEnvironment,
		res.ModelType,
		res.ModelID,
		decision.Required,
		res.Fallback)

	return res, nil
}

// emit appends entry to the sink. The caller's cancellation does not abort
// the write.
func (r *Router) emit(ctx context.Context, entry audit.Entry) {
	if err := r.sink.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.stats.auditFailures.Add(1)
		audit.WriteFallback(r.diagnostics, entry, err)
	}
}

func (r *Router) record(res RoutingResult, forced string) {
	r.stats.total.Add(1)
	if res.ModelType == catalog.ModelTypeOnPrem {
		r.stats.onprem.Add(1)
	} else {
		r.stats.cloud.Add(1)
	}
	if res.Fallback {
		r.stats.fallbacks.Add(1)
	}
	if forced != "" {
		r.stats.forced.Add(1)
	}
}

// Stats returns a snapshot of the counters.
func (r *Router) Stats() Stats {
	return Stats{
		Total:         r.stats.total.Load(),
		OnPrem:        r.stats.onprem.Load(),
		Cloud:         r.stats.cloud.Load(),
		Fallbacks:     r.stats.fallbacks.Load(),
		Forced:        r.stats.forced.Load(),
		Overridden:    r.stats.overridden.Load(),
		AuditFailures: r.stats.auditFailures.Load(),
	}
}

// ResetStats zeroes the counters.
func (r *Router) ResetStats() {
	r.stats.total.Store(0)
	r.stats.onprem.Store(0)
	r.stats.cloud.Store(0)
	r.stats.fallbacks.Store(0)
	r.stats.forced.Store(0)
	r.stats.overridden.Store(0)
	r.stats.auditFailures.Store(0)
}
