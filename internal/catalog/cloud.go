// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"fmt"
	"strings"
)

// Provider identifiers used in CloudModel.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderMeta      = "meta-llama"
)

// defaultCloudModels is the built-in cloud catalog, in display order.
var defaultCloudModels = []CloudModel{
	{
		ID:          "anthropic/claude-3.5-sonnet",
		Name:        "Claude 3.5 Sonnet",
		Provider:    ProviderAnthropic,
		Description: "Strong reasoning and code generation",
		Recommended: true,
	},
	{
		ID:          "anthropic/claude-3-haiku",
		Name:        "Claude 3 Haiku",
		Provider:    ProviderAnthropic,
		Description: "Fast, low-latency responses",
	},
	{
		ID:          "openai/gpt-4o",
		Name:        "GPT-4o",
		Provider:    ProviderOpenAI,
		Description: "Fluent natural-language generation",
	},
	{
		ID:          "google/gemini-pro-1.5",
		Name:        "Gemini Pro 1.5",
		Provider:    ProviderGoogle,
		Description: "Very large context window",
	},
	{
		ID:          "meta-llama/llama-3-70b-instruct",
		Name:        "Llama 3 70B Instruct",
		Provider:    ProviderMeta,
		Description: "Open-weights general model",
	},
}

// cloudAliases maps short names to catalog identifiers.
var cloudAliases = map[string]string{
	"sonnet": "anthropic/claude-3.5-sonnet",
	"haiku":  "anthropic/claude-3-haiku",
	"gpt4o":  "openai/gpt-4o",
	"gemini": "google/gemini-pro-1.5",
	"llama3": "meta-llama/llama-3-70b-instruct",
}

// Cloud is an immutable, ordered cloud model catalog.
// A Cloud value returned by NewCloud always has at least one entry.
type Cloud struct {
	models  []CloudModel
	byID    map[string]int
	aliases map[string]string
}

// NewCloud builds a catalog from models. It returns ErrEmptyCatalog when
// models is empty and an error for duplicate or blank identifiers.
func NewCloud(models []CloudModel, aliases map[string]string) (*Cloud, error) {
	if len(models) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Cloud{
		models:  make([]CloudModel, len(models)),
		byID:    make(map[string]int, len(models)),
		aliases: make(map[string]string, len(aliases)),
	}
	copy(c.models, models)

	for i, m := range c.models {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("cloud model at index %d has no id", i)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate cloud model id %q", m.ID)
		}
		c.byID[m.ID] = i
	}
	for alias, id := range aliases {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("alias %q points to unknown model %q", alias, id)
		}
		c.aliases[strings.ToLower(alias)] = id
	}
	return c, nil
}

// DefaultCloud returns the built-in catalog.
func DefaultCloud() *Cloud {
	c, err := NewCloud(defaultCloudModels, cloudAliases)
	if err != nil {
		// The built-in table is a compile-time constant; failure is a programming error.
		panic(err)
	}
	return c
}

// Len returns the number of entries.
func (c *Cloud) Len() int {
	if c == nil {
		return 0
	}
	return len(c.models)
}

// Models returns a copy of the catalog in display order.
func (c *Cloud) Models() []CloudModel {
	if c == nil {
		return nil
	}
	out := make([]CloudModel, len(c.models))
	copy(out, c.models)
	return out
}

// Lookup resolves an id or alias to a catalog entry.
func (c *Cloud) Lookup(idOrAlias string) (CloudModel, bool) {
	if c == nil {
		return CloudModel{}, false
	}
	key := strings.TrimSpace(idOrAlias)
	if key == "" {
		return CloudModel{}, false
	}
	if i, ok := c.byID[key]; ok {
		return c.models[i], true
	}
	if id, ok := c.aliases[strings.ToLower(key)]; ok {
		return c.models[c.byID[id]], true
	}
	return CloudModel{}, false
}

// FirstByProvider returns the first entry from provider, in catalog order.
func (c *Cloud) FirstByProvider(provider string) (CloudModel, bool) {
	if c == nil {
		return CloudModel{}, false
	}
	for _, m := range c.models {
		if strings.EqualFold(m.Provider, provider) {
			return m, true
		}
	}
	return CloudModel{}, false
}

// Recommended returns the entry flagged as recommended, or the first entry
// when none is flagged. It fails only on an empty catalog.
func (c *Cloud) Recommended() (CloudModel, error) {
	if c.Len() == 0 {
		return CloudModel{}, ErrEmptyCatalog
	}
	for _, m := range c.models {
		if m.Recommended {
			return m, nil
		}
	}
	return c.models[0], nil
}
