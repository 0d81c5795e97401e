// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router decides where a task runs: on-prem or cloud, and on which model.
//
// A route classifies the task, evaluates the compliance policy, applies the
// caller's force flags, selects a concrete model and records an audit entry.
//
// # Key Types
//
//   - Router: the routing facade, built once with its collaborators
//   - RoutingContext: one request (task plus per-call overrides)
//   - RoutingResult: the decision, its compliance notes and audit entry
//   - ConfigSource, Availability: collaborators for config and on-prem discovery
//
// # Security
//
// Compliance wins over a conflicting force-cloud request. When on-prem is
// required but disabled or unreachable the route degrades to cloud with a
// WARNING note and a fallback flag in the audit entry; it never fails.
// Compliance is recorded, not enforced as a hard stop.
//
// # Usage
//
//	r, err := router.New(router.Options{
//	    Config: store,
//	    OnPrem: provider,
//	    Audit:  sink,
//	})
//	res, err := r.Route(ctx, router.RoutingContext{Task: "implement the parser"})
//	switch m := res.Model.(type) {
//	case catalog.OnPremModel:
//	    // call m.Endpoint with m.Model
//	case catalog.CloudModel:
//	    // call the provider SDK with m.ID
//	}
package router
