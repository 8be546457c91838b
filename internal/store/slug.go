// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package store

import (
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// maxSlugLen keeps derived slugs in line with the validator limits.
const maxSlugLen = 120

// Slugify derives a URL slug from a display name: lowercase ASCII letters and
// digits, runs of anything else collapsed to a single hyphen.
//
//	Slugify("4K PTZ Dome (Outdoor)") == "4k-ptz-dome-outdoor"
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "item"
	}
	return slug
}

// resolveSlug picks the slug for a document. An explicit slug must be free
// (ErrConflict otherwise); a derived slug gets a numeric suffix until free.
func resolveSlug(txn *badger.Txn, ix uniqueIndex, explicit, name, id string) (string, error) {
	if explicit != "" {
		if err := ix.claim(txn, explicit, id); err != nil {
			return "", err
		}
		return explicit, nil
	}

	base := Slugify(name)
	candidate := base
	for n := 2; ; n++ {
		taken, err := ix.taken(txn, candidate, id)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	if err := ix.claim(txn, candidate, id); err != nil {
		return "", err
	}
	return candidate, nil
}
