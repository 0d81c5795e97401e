// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compliance decides whether an IDE task must stay on-premise.
//
// Two pieces live here:
//
//   - Classify maps free-text task descriptions to a closed set of task
//     categories using an ordered pattern table (first match wins).
//   - RequiresOnPrem evaluates the compliance policy for a task against the
//     ambient Config and returns a decision with a human-readable reason.
//
// # Policy Order
//
// SECURITY CRITICAL: RequiresOnPrem evaluates its rules in a fixed order.
// Strict mode with any non-public data always wins, then the sensitive
// category checks (environment first, classification second). The reason
// string of each branch is shown to the user as a compliance note, so every
// branch must produce a distinct explanation.
//
// # Usage
//
//	cfg := compliance.DefaultConfig()
//	decision := compliance.RequiresOnPrem("implement a parser", cfg)
//	if decision.Required {
//	    // route to an on-prem model
//	}
package compliance
