// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package onprem

import (
	"sort"
	"sync"
	"time"
)

// EndpointHealth is the last known state of one on-prem endpoint.
type EndpointHealth struct {
	Name                string    `json:"name"`
	URL                 string    `json:"url"`
	Healthy             bool      `json:"healthy"`
	ModelCount          int       `json:"model_count"`
	LastChecked         time.Time `json:"last_checked"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// HealthRegistry records probe outcomes per endpoint.
// It is owned by a Provider and can be Reset between test runs.
type HealthRegistry struct {
	mu      sync.RWMutex
	entries map[string]*EndpointHealth
	now     func() time.Time
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		entries: make(map[string]*EndpointHealth),
		now:     time.Now,
	}
}

func (h *HealthRegistry) entry(ep Endpoint) *EndpointHealth {
	e, ok := h.entries[ep.Name]
	if !ok {
		e = &EndpointHealth{Name: ep.Name, URL: ep.URL}
		h.entries[ep.Name] = e
	}
	return e
}

// RecordSuccess marks ep healthy with the number of models it listed.
func (h *HealthRegistry) RecordSuccess(ep Endpoint, models int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(ep)
	e.Healthy = true
	e.ModelCount = models
	e.LastChecked = h.now()
	e.LastError = ""
	e.ConsecutiveFailures = 0
}

// RecordFailure marks ep unhealthy.
func (h *HealthRegistry) RecordFailure(ep Endpoint, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(ep)
	e.Healthy = false
	e.ModelCount = 0
	e.LastChecked = h.now()
	if err != nil {
		e.LastError = err.Error()
	}
	e.ConsecutiveFailures++
}

// Get returns the state of the named endpoint.
func (h *HealthRegistry) Get(name string) (EndpointHealth, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entries[name]
	if !ok {
		return EndpointHealth{}, false
	}
	return *e, true
}

// Snapshot returns every endpoint's state sorted by name.
func (h *HealthRegistry) Snapshot() []EndpointHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]EndpointHealth, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset forgets every endpoint.
func (h *HealthRegistry) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string]*EndpointHealth)
}
