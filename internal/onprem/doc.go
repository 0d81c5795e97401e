// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package onprem answers "which on-prem models are reachable right now".
//
// A Provider probes each configured Ollama endpoint concurrently with a
// bounded timeout, merges the listings and orders them most recently
// modified first. Probes of a single endpoint are throttled with a token
// bucket; a throttled call reuses the last successful listing. Failures are
// recorded in a HealthRegistry and never surface as errors.
//
// # Usage
//
//	p := onprem.NewProvider(onprem.Options{
//	    Endpoints: []onprem.Endpoint{{Name: "local", URL: "http://127.0.0.1:11434"}},
//	})
//	models := p.Available(ctx) // empty when nothing is reachable
package onprem
