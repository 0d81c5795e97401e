// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the routing decision over a local HTTP API so editor
// extensions can ask where a task should run.
//
// # Endpoints
//
//   - POST /v1/route   - Route a task (body: router.RoutingContext)
//   - GET  /v1/models  - Reachable on-prem models and the cloud catalog
//   - GET  /health     - Liveness plus per-endpoint probe state (no auth)
//   - GET  /stats      - Routing counters
//
// # Security Features
//
//   - Bearer token authentication with constant-time comparison
//   - CORS allowlist with wildcard subdomains
//   - Per-IP token bucket rate limiting
//   - Security headers (X-Content-Type-Options, X-Frame-Options, CSP)
//   - Request body size limit and panic recovery
//
// # Usage
//
//	srv := server.New(r, server.Options{
//		Port:        8788,
//		BearerToken: cfg.Server.BearerToken,
//		Health:      provider.Health(),
//	})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
//
// Swap installs a rebuilt router and health registry for later requests.
package server
