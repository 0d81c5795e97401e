// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog defines the model descriptors a routing decision can select
// and the static cloud model catalog.
//
// # Key Types
//
//   - ModelDescriptor: sealed interface implemented by OnPremModel and CloudModel
//   - ModelType: onprem or cloud tag carried by every routing result
//   - Cloud: immutable, ordered cloud catalog with alias lookup
//
// # Usage
//
//	cloud := catalog.DefaultCloud()
//	m, ok := cloud.Lookup("sonnet")
//
//	switch d := desc.(type) {
//	case catalog.OnPremModel:
//	    fmt.Println(d.Endpoint)
//	case catalog.CloudModel:
//	    fmt.Println(d.Provider)
//	}
package catalog
