// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the config, CLI and server
// packages.
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - ParseBool, SplitList: lenient parsing for env vars and CLI values
package util
