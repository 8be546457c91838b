// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package services adapts Lenscape components to suture.Service.
//
// Every wrapper blocks in Serve until its context is canceled and implements
// fmt.Stringer so supervisor events name it:
//   - HTTPServerService: ListenAndServe with graceful Shutdown
//   - StoreGCService: periodic badger value log GC
//   - CacheSweepService: periodic eviction of expired catalog cache entries
package services
