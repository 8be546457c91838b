// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package upload implements the image upload gateway: admission control,
// payload validation, and delegation to the media host with a primary and a
// fallback path.
//
// Admission is a non-blocking counting gate. A request beyond the ceiling is
// rejected at once with ErrTooManyRequests; nothing is queued.
package upload

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/lenscape/internal/metrics"
)

// DefaultMaxConcurrent is the admission ceiling when none is configured.
const DefaultMaxConcurrent = 3

// ErrTooManyRequests is returned when the admission ceiling is reached.
var ErrTooManyRequests = errors.New("too many concurrent uploads")

// ReleaseFunc returns an admission slot. Calling it more than once is a no-op.
type ReleaseFunc func()

// Admission caps the number of uploads processed at once.
type Admission struct {
	inFlight atomic.Int64
	ceiling  int64
}

// NewAdmission creates a gate admitting at most ceiling concurrent uploads.
// A non-positive ceiling falls back to DefaultMaxConcurrent.
func NewAdmission(ceiling int) *Admission {
	if ceiling <= 0 {
		ceiling = DefaultMaxConcurrent
	}
	return &Admission{ceiling: int64(ceiling)}
}

// Admit claims a slot or fails with ErrTooManyRequests. The caller must
// defer the returned release.
//
//	release, err := gate.Admit()
//	if err != nil {
//		return err
//	}
//	defer release()
func (a *Admission) Admit() (ReleaseFunc, error) {
	for {
		cur := a.inFlight.Load()
		if cur >= a.ceiling {
			metrics.RecordAdmission(false)
			return nil, ErrTooManyRequests
		}
		if a.inFlight.CompareAndSwap(cur, cur+1) {
			metrics.RecordAdmission(true)
			metrics.SetUploadsInFlight(cur + 1)
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			metrics.SetUploadsInFlight(a.inFlight.Add(-1))
		})
	}, nil
}

// InFlight returns the number of admitted, unreleased uploads.
func (a *Admission) InFlight() int {
	return int(a.inFlight.Load())
}

// Ceiling returns the admission limit.
func (a *Admission) Ceiling() int {
	return int(a.ceiling)
}
