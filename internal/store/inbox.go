// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package store

import (
	"context"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/lenscape/internal/models"
)

const (
	collContacts    = "contacts"
	collSubscribers = "subscribers"
)

var (
	contacts           = collection[models.ContactMessage]{name: collContacts}
	subscribers        = collection[models.Subscriber]{name: collSubscribers}
	subscriberEmailIdx = uniqueIndex{collection: collSubscribers, field: "email"}
)

// CreateContact stores a contact form submission as unread.
func (s *Store) CreateContact(ctx context.Context, in *models.ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   in.Message,
		ProductID: in.ProductID,
		CreatedAt: s.now().UTC(),
	}

	err := s.update(ctx, "create", collContacts, func(txn *badger.Txn) error {
		return contacts.put(txn, msg.ID, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListContacts returns contact messages, newest first.
func (s *Store) ListContacts(ctx context.Context) ([]*models.ContactMessage, error) {
	var msgs []*models.ContactMessage
	err := s.view(ctx, "list", collContacts, func(txn *badger.Txn) error {
		var err error
		msgs, err = contacts.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	if msgs == nil {
		msgs = []*models.ContactMessage{}
	}
	return msgs, nil
}

// MarkContactRead flags a message as read. Marking twice is harmless.
func (s *Store) MarkContactRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	var out *models.ContactMessage
	err := s.update(ctx, "mark_read", collContacts, func(txn *badger.Txn) error {
		msg, err := contacts.get(txn, id)
		if err != nil {
			return err
		}
		out = msg
		if msg.Read {
			return nil
		}
		msg.Read = true
		return contacts.put(txn, id, msg)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteContact removes a contact message.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	return s.update(ctx, "delete", collContacts, func(txn *badger.Txn) error {
		return contacts.delete(txn, id)
	})
}

// Subscribe adds an email to the newsletter list. The email is normalized
// (trimmed, lowercased); a duplicate fails with ErrConflict.
func (s *Store) Subscribe(ctx context.Context, in *models.SubscribeInput) (*models.Subscriber, error) {
	sub := &models.Subscriber{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(in.Email),
		Source:    strings.TrimSpace(in.Source),
		CreatedAt: s.now().UTC(),
	}

	err := s.update(ctx, "create", collSubscribers, func(txn *badger.Txn) error {
		if err := subscriberEmailIdx.claim(txn, sub.Email, sub.ID); err != nil {
			return err
		}
		return subscribers.put(txn, sub.ID, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubscribers returns subscribers, newest first.
func (s *Store) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	var subs []*models.Subscriber
	err := s.view(ctx, "list", collSubscribers, func(txn *badger.Txn) error {
		var err error
		subs, err = subscribers.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	if subs == nil {
		subs = []*models.Subscriber{}
	}
	return subs, nil
}

// Unsubscribe removes a subscriber by ID and frees the email for re-subscribing.
func (s *Store) Unsubscribe(ctx context.Context, id string) error {
	return s.update(ctx, "delete", collSubscribers, func(txn *badger.Txn) error {
		sub, err := subscribers.get(txn, id)
		if err != nil {
			return err
		}
		if err := subscriberEmailIdx.release(txn, sub.Email); err != nil {
			return err
		}
		return subscribers.delete(txn, id)
	})
}

// Stats returns the dashboard counts.
func (s *Store) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	err := s.view(ctx, "stats", "all", func(txn *badger.Txn) error {
		stats.Categories = categories.count(txn)
		stats.Products = products.count(txn)
		stats.Subscribers = subscribers.count(txn)
		return contacts.each(txn, func(m *models.ContactMessage) bool {
			stats.Contacts++
			if !m.Read {
				stats.UnreadContacts++
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
