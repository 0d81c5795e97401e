// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for
// rigrun-ide.
//
// # Key Types
//
//   - Command: enumeration of the top-level commands
//   - Args: global flags plus an ArgParser for command flags
//   - Env: output streams and the interrupt channel for "serve"
//   - JSONResponse: the envelope printed in --json mode
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.DisplayError(os.Stderr, "rigrun-ide", err, false)
//	    os.Exit(cli.ExitUsageError)
//	}
//	os.Exit(cli.Run(cli.DefaultEnv(), cmd, args))
//
// # Commands Overview
//
//   - route: classify, evaluate policy, pick a model and audit the decision
//   - classify: category and policy verdict without routing
//   - models: probe on-prem endpoints and list the cloud catalog
//   - config: show, get, set, reset, path
//   - audit: show, export, verify
//   - serve: local HTTP API, rebuilt when the config file changes
//
// Every command supports --json. Colours are used only on terminals and
// honour NO_COLOR.
package cli
