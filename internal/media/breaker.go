// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
)

// BreakerSettings tune the circuit breaker around a Host.
type BreakerSettings struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval resets the failure counts while closed.
	Interval time.Duration

	// Timeout is how long the circuit stays open before half-opening.
	Timeout time.Duration

	// MinRequests and FailureRatio decide when to open.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings opens after 60% failures over at least 5 calls and
// sends trial requests again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker wraps a Host in a circuit breaker. While open, calls fail at once
// with an error matching ErrUpstream and gobreaker.ErrOpenState.
//
// Rejections by the host (4xx) and caller cancellations do not count as
// failures.
type Breaker struct {
	host Host
	cb   *gobreaker.CircuitBreaker[*Result]
	name string
}

// NewBreaker wraps host.
func NewBreaker(host Host, s BreakerSettings) *Breaker {
	name := "media-" + host.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
		IsSuccessful: isSuccessful,
	})

	return &Breaker{host: host, cb: cb, name: name}
}

// Name implements Host.
func (b *Breaker) Name() string { return b.host.Name() }

// Upload implements Host.
func (b *Breaker) Upload(ctx context.Context, asset Asset, opts Options) (*Result, error) {
	res, err := b.cb.Execute(func() (*Result, error) {
		return b.host.Upload(ctx, asset, opts)
	})
	return res, b.wrap(err)
}

// Delete implements Host.
func (b *Breaker) Delete(ctx context.Context, url string) error {
	_, err := b.cb.Execute(func() (*Result, error) {
		return nil, b.host.Delete(ctx, url)
	})
	return b.wrap(err)
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Open reports whether calls are currently being rejected.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

func (b *Breaker) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s circuit %s: %w: %w", b.name, b.State(), ErrUpstream, err)
	}
	return err
}

// isSuccessful decides which errors count against the circuit.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidURL) {
		return true
	}
	var hostErr *HostError
	if errors.As(err, &hostErr) && hostErr.ClientFault() {
		return true
	}
	return false
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
