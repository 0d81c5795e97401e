// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"strings"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
)

// CapabilityCode tags an on-prem model as code-specialised.
const CapabilityCode = "code"

// DefaultCodeMarkers identify code-specialist models by identifier substring
// when no capability tag is present.
var DefaultCodeMarkers = []string{
	"coder", "code", "codellama", "starcoder", "codestral",
	"deepseek-coder", "codegemma", "qwen2.5-coder",
}

// cloudProviderFor maps task categories to the provider preferred for them.
// Categories not listed use the default model.
var cloudProviderFor = map[compliance.TaskCategory]string{
	compliance.CategoryCode:     catalog.ProviderAnthropic,
	compliance.CategoryTest:     catalog.ProviderAnthropic,
	compliance.CategoryResearch: catalog.ProviderGoogle,
	compliance.CategoryDesign:   catalog.ProviderOpenAI,
	compliance.CategoryDocument: catalog.ProviderOpenAI,
}

// prefersCodeModel reports whether category should rank code specialists first.
func prefersCodeModel(category compliance.TaskCategory) bool {
	switch category {
	case compliance.CategoryCode, compliance.CategoryTest, compliance.CategoryDeploy:
		return true
	}
	return false
}

// =============================================================================
// ON-PREM SELECTION
// =============================================================================

// SelectOnPremModel picks an on-prem model for task. ok is false when no
// on-prem model is reachable.
func (r *Router) SelectOnPremModel(ctx context.Context, task string) (catalog.OnPremModel, bool) {
	return r.selectOnPrem(ctx, r.classifier.Classify(task), "")
}

// selectOnPrem ranks the available models:
//  1. the caller's preferred model, if it is available
//  2. for code/test/deploy: a model tagged with the code capability
//  3. for code/test/deploy: a model whose identifier contains a code marker
//  4. the first (most recently activated) model
func (r *Router) selectOnPrem(ctx context.Context, category compliance.TaskCategory, preferred string) (catalog.OnPremModel, bool) {
	models := r.onprem.Available(ctx)
	if len(models) == 0 {
		return catalog.OnPremModel{}, false
	}

	if preferred != "" {
		for _, m := range models {
			if strings.EqualFold(m.ID, preferred) || strings.EqualFold(m.Model, preferred) {
				return m, true
			}
		}
	}

	if prefersCodeModel(category) {
		for _, m := range models {
			if m.HasCapability(CapabilityCode) {
				return m, true
			}
		}
		for _, m := range models {
			if r.hasCodeMarker(m) {
				return m, true
			}
		}
	}

	return models[0], true
}

func (r *Router) hasCodeMarker(m catalog.OnPremModel) bool {
	id := strings.ToLower(m.Model)
	if id == "" {
		id = strings.ToLower(m.ID)
	}
	for _, marker := range r.codeMarkers {
		if strings.Contains(id, marker) {
			return true
		}
	}
	return false
}

// =============================================================================
// CLOUD SELECTION
// =============================================================================

// SelectCloudModel picks a cloud model for task. A preferred id or alias that
// resolves in the catalog is returned unconditionally. The only error is
// catalog.ErrEmptyCatalog.
func (r *Router) SelectCloudModel(task, preferredID string) (catalog.CloudModel, error) {
	m, _, err := r.selectCloud(r.classifier.Classify(task), preferredID)
	return m, err
}

// selectCloud also reports whether a non-empty preferredID was honoured.
func (r *Router) selectCloud(category compliance.TaskCategory, preferredID string) (catalog.CloudModel, bool, error) {
	if r.cloud.Len() == 0 {
		return catalog.CloudModel{}, false, catalog.ErrEmptyCatalog
	}

	if preferredID != "" {
		if m, ok := r.cloud.Lookup(preferredID); ok {
			return m, true, nil
		}
	}

	if provider, ok := cloudProviderFor[category]; ok {
		if m, ok := r.cloud.FirstByProvider(provider); ok {
			return m, false, nil
		}
	}

	if r.defaultCloud != "" {
		if m, ok := r.cloud.Lookup(r.defaultCloud); ok {
			return m, false, nil
		}
	}

	m, err := r.cloud.Recommended()
	return m, false, err
}
