// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compliance

import "fmt"

// Decision is the outcome of a policy evaluation.
type Decision struct {
	// Required is true when the task must be processed on-prem.
	Required bool `json:"required"`
	// Reason is the user-facing explanation, copied into compliance notes.
	Reason string `json:"reason"`
	// Category is the classifier output used for the decision.
	Category TaskCategory `json:"category"`
}

// RequiresOnPrem evaluates the compliance policy for task using the built-in
// classifier.
func RequiresOnPrem(task string, cfg Config) Decision {
	return EvaluatePolicy(defaultClassifier, task, cfg)
}

// EvaluatePolicy evaluates the compliance policy for task.
//
// SECURITY CHECK ORDER (DO NOT REORDER):
//  1. Strict mode with non-public data
//  2. Sensitive category + production/staging environment
//  3. Sensitive category + confidential/restricted data
//  4. Otherwise cloud is allowed
func EvaluatePolicy(c *Classifier, task string, cfg Config) Decision {
	category := c.Classify(task)

	if cfg.StrictMode && cfg.DataClassification.AtLeast(ClassificationInternal) {
		return Decision{
			Required: true,
			Category: category,
			Reason: fmt.Sprintf("Strict mode enabled - %s data must be processed on-premises",
				cfg.DataClassification),
		}
	}

	if category.IsSensitive() && cfg.TargetEnvironment.IsShared() {
		return Decision{
			Required: true,
			Category: category,
			Reason: fmt.Sprintf("%s tasks targeting %s require on-premises processing",
				category.Title(), cfg.TargetEnvironment),
		}
	}

	if category.IsSensitive() && cfg.DataClassification.AtLeast(ClassificationConfidential) {
		return Decision{
			Required: true,
			Category: category,
			Reason: fmt.Sprintf("%s data classification requires on-premises processing for %s tasks",
				capitalize(cfg.DataClassification.String()), category),
		}
	}

	if category == CategoryGeneral {
		return Decision{Required: false, Category: category, Reason: "General task - cloud allowed"}
	}
	return Decision{
		Required: false,
		Category: category,
		Reason:   fmt.Sprintf("%s tasks allowed on cloud", category.Title()),
	}
}
