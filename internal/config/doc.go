// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and persists rigrun-ide settings.
//
// Settings may be TOML, JSON or YAML; the format follows the file extension.
//
// # Key Types
//
//   - Config: the whole settings file (compliance, onprem, cloud, audit, server)
//   - Store: the settings file as a live compliance configuration source
//   - CompliancePatch: partial update of the compliance section
//
// # Configuration Precedence
//
// Configuration is resolved in this order (later wins):
//   - Built-in defaults
//   - $RIGRUN_IDE_CONFIG, or ~/.rigrun-ide/config.{toml,json,yaml}
//   - Environment variables (RIGRUN_IDE_*)
//
// # Usage
//
//	store, err := config.OpenDefaultStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cc, onPrem := store.Snapshot() // re-read on every call
//
//	strict := true
//	_, err = store.Set(config.CompliancePatch{StrictMode: &strict})
package config
