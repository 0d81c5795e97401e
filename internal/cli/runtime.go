// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/config"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
	"github.com/jeranaias/rigrun-ide/internal/router"
)

// app is the wired routing stack for one command invocation.
type app struct {
	store       *config.Store
	audit       *audit.Switch
	diagnostics io.Writer

	mu       sync.Mutex
	cfg      *config.Config
	provider *onprem.Provider
	router   *router.Router
}

// openStore resolves the config path from --config or the defaults.
func openStore(args Args) (*config.Store, error) {
	if args.ConfigPath != "" {
		return config.NewStore(args.ConfigPath), nil
	}
	return config.OpenDefaultStore()
}

// openApp loads the config and wires the provider, audit sink and router.
// The caller must call close.
func openApp(env *Env, args Args) (*app, error) {
	store, err := openStore(args)
	if err != nil {
		return nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	sink, closer, err := openAuditSink(cfg.Audit)
	if err != nil {
		return nil, err
	}
	a := &app{
		store:       store,
		audit:       audit.NewSwitch(sink, closer),
		diagnostics: env.Stderr,
		cfg:         cfg,
	}

	a.provider, a.router, err = a.build(cfg)
	if err != nil {
		a.audit.Close()
		return nil, err
	}
	return a, nil
}

func openAuditSink(ac config.AuditConfig) (audit.Sink, io.Closer, error) {
	sink, closer, err := audit.Open(audit.Options{
		Kind:       ac.Sink,
		Path:       ac.Path,
		MaxSizeMB:  ac.MaxSizeMB,
		MaxBackups: ac.MaxBackups,
		SealSecret: ac.SealKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit sink: %w", err)
	}
	return sink, closer, nil
}

// build wires a provider and router for cfg around the app's audit switch.
func (a *app) build(cfg *config.Config) (*onprem.Provider, *router.Router, error) {
	provider := onprem.NewProvider(onprem.Options{
		Endpoints:     cfg.OnPrem.Endpoints,
		ProbeTimeout:  cfg.OnPrem.ProbeTimeout(),
		ProbeInterval: cfg.OnPrem.ProbeInterval(),
		CodeModels:    cfg.OnPrem.CodeModels,
	})

	r, err := router.New(router.Options{
		Config:            a.store,
		OnPrem:            provider,
		Audit:             a.audit,
		CodeMarkers:       cfg.OnPrem.CodeMarkers,
		DefaultCloudModel: cfg.Cloud.DefaultModel,
		Diagnostics:       a.diagnostics,
	})
	if err != nil {
		return nil, nil, err
	}
	return provider, r, nil
}

// reload re-reads the config file and rebuilds the provider and router. The
// audit sink is reopened only when the audit section changed. On error the
// current stack stays in place.
func (a *app) reload() (*router.Router, *onprem.HealthRegistry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.store.Load()
	if err != nil {
		return nil, nil, err
	}
	provider, r, err := a.build(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Audit != a.cfg.Audit {
		err := a.audit.Replace(func() (audit.Sink, io.Closer, error) {
			return openAuditSink(cfg.Audit)
		})
		if err != nil {
			return nil, nil, err
		}
	}

	a.cfg, a.provider, a.router = cfg, provider, r
	return r, provider.Health(), nil
}

func (a *app) close() {
	a.audit.Close()
}
