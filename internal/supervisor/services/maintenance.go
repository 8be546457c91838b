// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package services

import (
	"context"
	"time"

	"github.com/tomtom215/lenscape/internal/logging"
)

const (
	// gcDiscardRatio is the share of stale data a value log file needs
	// before badger rewrites it.
	gcDiscardRatio = 0.5

	// maxGCPassesPerTick bounds the rewrite loop on a single tick.
	maxGCPassesPerTick = 10
)

// ValueLogCollector is implemented by *store.Store.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) (bool, error)
}

// StoreGCService periodically reclaims badger value log space.
type StoreGCService struct {
	store    ValueLogCollector
	interval time.Duration
}

// NewStoreGCService creates the GC loop. A non-positive interval means 10m.
func NewStoreGCService(store ValueLogCollector, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

// collect repeats GC while files keep getting rewritten, as badger suggests.
func (s *StoreGCService) collect(ctx context.Context) {
	for i := 0; i < maxGCPassesPerTick && ctx.Err() == nil; i++ {
		rewritten, err := s.store.RunValueLogGC(gcDiscardRatio)
		if err != nil {
			logging.Warn().Err(err).Msg("Value log GC failed")
			return
		}
		if !rewritten {
			return
		}
		logging.Debug().Int("pass", i+1).Msg("Value log file rewritten")
	}
}

func (s *StoreGCService) String() string { return "store-gc" }

// CacheSweeper is implemented by *cache.Cache.
type CacheSweeper interface {
	Run(ctx context.Context, interval time.Duration) error
}

// CacheSweepService evicts expired catalog cache entries.
type CacheSweepService struct {
	cache    CacheSweeper
	interval time.Duration
}

// NewCacheSweepService creates the sweep loop. A non-positive interval means 1m.
func NewCacheSweepService(cache CacheSweeper, interval time.Duration) *CacheSweepService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheSweepService{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	return s.cache.Run(ctx, s.interval)
}

func (s *CacheSweepService) String() string { return "cache-sweep" }
