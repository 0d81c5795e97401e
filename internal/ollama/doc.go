// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides a discovery client for Ollama servers.
//
// The router never runs inference itself; this client only answers "is the
// server up" and "which models are installed", which is what on-prem
// availability needs.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama health and /api/tags endpoints
//   - ModelInfo: one installed model, including ModifiedAt and family details
//   - ClientError: typed error with ErrorType for handling
//
// # Usage
//
//	client := ollama.NewClient("http://127.0.0.1:11434")
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	models, err := client.ListModels(ctx)
package ollama
