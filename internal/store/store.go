// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package store persists catalog and inbox documents in BadgerDB.
//
// Documents are JSON values under "doc:<collection>:<id>". Unique secondary
// fields (category slug, product slug, subscriber email) are kept as
// "idx:<collection>:<field>:<value>" -> id entries written in the same
// transaction as the document, so an index never points at a missing document.
//
// Key layout:
//
//	doc:categories:<uuid>          Category JSON
//	idx:categories:slug:<slug>     <uuid>
//	doc:products:<uuid>            Product JSON
//	idx:products:slug:<slug>       <uuid>
//	doc:contacts:<uuid>            ContactMessage JSON
//	doc:subscribers:<uuid>         Subscriber JSON
//	idx:subscribers:email:<email>  <uuid>
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field is taken or a document is
	// still referenced by others.
	ErrConflict = errors.New("conflict")

	// ErrInvalidReference is returned when a document points at a missing or
	// ineligible parent (unknown category, nested subcategory).
	ErrInvalidReference = errors.New("invalid reference")
)

// txnRetries bounds retries on badger.ErrConflict between concurrent writers.
const txnRetries = 3

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool
}

// Store is the Badger-backed document store.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
	now func() time.Time
}

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	l := logging.With().Str("component", "store").Logger()

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLogger(&badgerLogger{l: l})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %q: %w", opts.Path, err)
	}

	l.Info().Str("path", opts.Path).Bool("in_memory", opts.InMemory).Msg("Document store opened")
	return &Store{db: db, log: l, now: time.Now}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("store is closed")
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("idx:ping"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// RunValueLogGC runs one value log GC pass. It returns true when a file was
// rewritten. In-memory databases and passes with nothing to collect are no-ops.
func (s *Store) RunValueLogGC(discardRatio float64) (bool, error) {
	err := s.db.RunValueLogGC(discardRatio)
	switch {
	case err == nil:
		metrics.RecordStoreGC("rewritten")
		return true, nil
	case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode), errors.Is(err, badger.ErrRejected):
		metrics.RecordStoreGC("noop")
		return false, nil
	default:
		metrics.RecordStoreGC("error")
		return false, fmt.Errorf("value log gc: %w", err)
	}
}

// view runs fn in a read-only transaction and records the operation.
func (s *Store) view(ctx context.Context, op, coll string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := s.db.View(fn)
	metrics.RecordStoreOperation(op, coll, time.Since(start), unexpected(err))
	return err
}

// update runs fn in a read-write transaction, retrying transaction conflicts.
func (s *Store) update(ctx context.Context, op, coll string, fn func(txn *badger.Txn) error) error {
	start := time.Now()
	var err error
	for attempt := 0; attempt < txnRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.log.Debug().Str("op", op).Int("attempt", attempt+1).Msg("Transaction conflict, retrying")
	}
	metrics.RecordStoreOperation(op, coll, time.Since(start), unexpected(err))
	return err
}

// unexpected filters out domain errors so only real failures are counted.
func unexpected(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidReference) {
		return nil
	}
	return err
}

// badgerLogger routes badger's internal logging through zerolog. Badger is
// chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	l zerolog.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(format, args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(format, args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(format, args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(format, args...)
}
