// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package onprem

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/ollama"
)

// Default probe settings.
const (
	DefaultProbeTimeout  = 3 * time.Second
	DefaultProbeInterval = 2 * time.Second
)

// Endpoint is a named on-prem Ollama server.
type Endpoint struct {
	Name string `toml:"name" json:"name" yaml:"name"`
	URL  string `toml:"url" json:"url" yaml:"url"`
}

// Options configures a Provider.
type Options struct {
	Endpoints []Endpoint

	// ProbeTimeout bounds each endpoint listing (default 3s).
	ProbeTimeout time.Duration

	// ProbeInterval is the minimum spacing between live probes of one
	// endpoint. Calls inside the window reuse the last successful listing.
	ProbeInterval time.Duration

	// CodeModels lists model names (exact, case-insensitive) that are tagged
	// with the "code" capability.
	CodeModels []string
}

// Provider discovers reachable on-prem models across all configured endpoints.
// It is safe for concurrent use.
type Provider struct {
	endpoints  []*endpointState
	timeout    time.Duration
	codeModels map[string]bool
	health     *HealthRegistry
}

type endpointState struct {
	ep      Endpoint
	client  *ollama.Client
	limiter *rate.Limiter

	mu   sync.Mutex
	last []catalog.OnPremModel
	ok   bool
}

// NewProvider creates a provider over opts.Endpoints.
func NewProvider(opts Options) *Provider {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.ProbeInterval < 0 {
		opts.ProbeInterval = 0
	}

	p := &Provider{
		timeout:    opts.ProbeTimeout,
		codeModels: make(map[string]bool, len(opts.CodeModels)),
		health:     NewHealthRegistry(),
	}
	for _, m := range opts.CodeModels {
		p.codeModels[strings.ToLower(strings.TrimSpace(m))] = true
	}

	limit := rate.Inf
	if opts.ProbeInterval > 0 {
		limit = rate.Every(opts.ProbeInterval)
	}
	for i, ep := range opts.Endpoints {
		if ep.Name == "" {
			ep.Name = defaultEndpointName(i)
		}
		p.endpoints = append(p.endpoints, &endpointState{
			ep: ep,
			client: ollama.NewClientWithConfig(&ollama.ClientConfig{
				BaseURL: ep.URL,
				Timeout: opts.ProbeTimeout,
			}),
			limiter: rate.NewLimiter(limit, 1),
		})
	}
	return p
}

func defaultEndpointName(i int) string {
	if i == 0 {
		return "local"
	}
	return "endpoint-" + strconv.Itoa(i+1)
}

// Health returns the provider's health registry.
func (p *Provider) Health() *HealthRegistry {
	return p.health
}

// Endpoints returns the configured endpoints.
func (p *Provider) Endpoints() []Endpoint {
	out := make([]Endpoint, len(p.endpoints))
	for i, s := range p.endpoints {
		out[i] = s.ep
	}
	return out
}

// Reset clears cached listings, probe throttles and health state.
func (p *Provider) Reset() {
	for _, s := range p.endpoints {
		s.mu.Lock()
		s.last = nil
		s.ok = false
		s.limiter = rate.NewLimiter(s.limiter.Limit(), 1)
		s.mu.Unlock()
	}
	p.health.Reset()
}

// Available lists models on every reachable endpoint, most recently modified
// first. Unreachable endpoints contribute nothing; the result is empty, never
// an error, when nothing is reachable.
func (p *Provider) Available(ctx context.Context) []catalog.OnPremModel {
	if len(p.endpoints) == 0 {
		return nil
	}

	results := make([][]catalog.OnPremModel, len(p.endpoints))
	var wg sync.WaitGroup
	for i, s := range p.endpoints {
		wg.Add(1)
		go func(i int, s *endpointState) {
			defer wg.Done()
			results[i] = p.probe(ctx, s)
		}(i, s)
	}
	wg.Wait()

	var all []catalog.OnPremModel
	for _, r := range results {
		all = append(all, r...)
	}
	sortByRecency(all)
	return all
}

func (p *Provider) probe(ctx context.Context, s *endpointState) []catalog.OnPremModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Every live probe takes a token, including the first.
	allowed := s.limiter.Allow()
	if s.ok && !allowed {
		return cloneModels(s.last)
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	infos, err := s.client.ListModels(probeCtx)
	if err != nil {
		log.Printf("ONPREM_PROBE_FAILED | endpoint=%s url=%s error=%v", s.ep.Name, s.ep.URL, err)
		p.health.RecordFailure(s.ep, err)
		s.last = nil
		s.ok = false
		return nil
	}

	models := make([]catalog.OnPremModel, 0, len(infos))
	for _, info := range infos {
		models = append(models, p.toModel(s.ep, info))
	}
	p.health.RecordSuccess(s.ep, len(models))
	s.last = models
	s.ok = true
	return cloneModels(models)
}

func (p *Provider) toModel(ep Endpoint, info ollama.ModelInfo) catalog.OnPremModel {
	m := catalog.OnPremModel{
		ID:          ep.Name + "/" + info.Name,
		DisplayName: displayName(info.Name),
		Endpoint:    strings.TrimRight(ep.URL, "/"),
		Model:       info.Name,
		Family:      info.Details.Family,
		ModifiedAt:  info.ModifiedAt,
	}
	if p.codeModels[strings.ToLower(info.Name)] {
		m.Capabilities = []string{"code"}
	}
	return m
}

// displayName turns "qwen2.5-coder:7b" into "qwen2.5-coder (7b)".
func displayName(name string) string {
	base, tag, found := strings.Cut(name, ":")
	if !found || tag == "" || tag == "latest" {
		return base
	}
	return base + " (" + tag + ")"
}

func sortByRecency(models []catalog.OnPremModel) {
	sort.SliceStable(models, func(i, j int) bool {
		if !models[i].ModifiedAt.Equal(models[j].ModifiedAt) {
			return models[i].ModifiedAt.After(models[j].ModifiedAt)
		}
		return models[i].ID < models[j].ID
	})
}

func cloneModels(in []catalog.OnPremModel) []catalog.OnPremModel {
	if in == nil {
		return nil
	}
	out := make([]catalog.OnPremModel, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// Static is a fixed availability list. It is used when discovery is not
// configured and in tests.
type Static []catalog.OnPremModel

// Available returns a copy of the list.
func (s Static) Available(context.Context) []catalog.OnPremModel {
	return cloneModels(s)
}
