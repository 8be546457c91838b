// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// collection stores documents of type T under "doc:<name>:<id>".
type collection[T any] struct {
	name string
}

func (c collection[T]) prefix() []byte {
	return []byte("doc:" + c.name + ":")
}

func (c collection[T]) key(id string) []byte {
	return []byte("doc:" + c.name + ":" + id)
}

func (c collection[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(c.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", c.name, id, err)
	}

	var doc T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", c.name, id, err)
	}
	return &doc, nil
}

func (c collection[T]) put(txn *badger.Txn, id string, doc *T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", c.name, id, err)
	}
	if err := txn.Set(c.key(id), data); err != nil {
		return fmt.Errorf("set %s %s: %w", c.name, id, err)
	}
	return nil
}

func (c collection[T]) delete(txn *badger.Txn, id string) error {
	if _, err := txn.Get(c.key(id)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
		}
		return err
	}
	return txn.Delete(c.key(id))
}

// each calls fn for every document in the collection, stopping early when fn
// returns false.
func (c collection[T]) each(txn *badger.Txn, fn func(doc *T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = c.prefix()
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var doc T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return fmt.Errorf("decode %s %s: %w", c.name, it.Item().Key(), err)
		}
		if !fn(&doc) {
			return nil
		}
	}
	return nil
}

func (c collection[T]) list(txn *badger.Txn) ([]*T, error) {
	var docs []*T
	err := c.each(txn, func(doc *T) bool {
		docs = append(docs, doc)
		return true
	})
	return docs, err
}

func (c collection[T]) count(txn *badger.Txn) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = c.prefix()
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}

// uniqueIndex maps a unique field value to the owning document ID.
type uniqueIndex struct {
	collection string
	field      string
}

func (ix uniqueIndex) key(value string) []byte {
	return []byte("idx:" + ix.collection + ":" + ix.field + ":" + value)
}

// lookup returns the ID owning value.
func (ix uniqueIndex) lookup(txn *badger.Txn, value string) (string, error) {
	item, err := txn.Get(ix.key(value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("%s %s %q: %w", ix.collection, ix.field, value, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// claim points value at id. Claiming a value owned by another document fails
// with ErrConflict; re-claiming your own value is a no-op.
func (ix uniqueIndex) claim(txn *badger.Txn, value, id string) error {
	owner, err := ix.lookup(txn, value)
	switch {
	case err == nil && owner != id:
		return fmt.Errorf("%s %s %q already in use: %w", ix.collection, ix.field, value, ErrConflict)
	case err == nil:
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return txn.Set(ix.key(value), []byte(id))
}

// taken reports whether value is owned by a document other than id.
func (ix uniqueIndex) taken(txn *badger.Txn, value, id string) (bool, error) {
	owner, err := ix.lookup(txn, value)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner != id, nil
}

func (ix uniqueIndex) release(txn *badger.Txn, value string) error {
	return txn.Delete(ix.key(value))
}
