// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package metrics holds the Prometheus collectors for Lenscape.
//
// All collectors are registered on the default registry through promauto and
// exposed by the /metrics endpoint. Callers use the Record* helpers rather than
// touching the vectors directly so label sets stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lenscape_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lenscape_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_rate_limit_hits_total",
			Help: "Total number of public form requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Session gate
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_login_attempts_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"}, // "success", "invalid_credentials", "unconfigured", "bad_request"
	)

	SessionVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_session_verifications_total",
			Help: "Session verifications by surface and result",
		},
		[]string{"surface", "result"}, // surface: "page" | "api"; result: "ok", "missing", "invalid"
	)

	// Upload gateway
	UploadAdmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_upload_admissions_total",
			Help: "Upload admission decisions",
		},
		[]string{"result"}, // "admitted", "rejected"
	)

	UploadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lenscape_uploads_in_flight",
			Help: "Uploads currently holding an admission slot",
		},
	)

	UploadOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_upload_outcomes_total",
			Help: "Upload request outcomes",
		},
		[]string{"outcome"}, // "success", "validation", "too_large", "upstream"
	)

	MediaUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lenscape_media_upload_duration_seconds",
			Help:    "Media host call duration by provider, path and outcome",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "path", "outcome"}, // path: "primary" | "fallback" | "delete"
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lenscape_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Document store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lenscape_store_operation_duration_seconds",
			Help:    "Badger document store operation duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_store_operation_errors_total",
			Help: "Badger document store operation errors",
		},
		[]string{"operation", "collection", "error_type"},
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_store_gc_runs_total",
			Help: "Badger value log GC runs by result",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)

	// Catalog cache
	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lenscape_catalog_cache_hits_total",
			Help: "Public catalog cache hits",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lenscape_catalog_cache_misses_total",
			Help: "Public catalog cache misses",
		},
	)

	CatalogCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lenscape_catalog_cache_entries",
			Help: "Current number of cached catalog responses",
		},
	)

	// Inbox
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenscape_form_submissions_total",
			Help: "Public form submissions by form and result",
		},
		[]string{"form", "result"}, // form: "contact" | "newsletter"
	)
)

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rate limiter rejection.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// RecordSessionVerification counts a gate decision.
func RecordSessionVerification(surface, result string) {
	SessionVerifications.WithLabelValues(surface, result).Inc()
}

// RecordAdmission counts an admission decision.
func RecordAdmission(admitted bool) {
	if admitted {
		UploadAdmissions.WithLabelValues("admitted").Inc()
		return
	}
	UploadAdmissions.WithLabelValues("rejected").Inc()
}

// SetUploadsInFlight publishes the admission counter.
func SetUploadsInFlight(n int64) {
	UploadsInFlight.Set(float64(n))
}

// RecordUploadOutcome counts the final outcome of an upload request.
func RecordUploadOutcome(outcome string) {
	UploadOutcomes.WithLabelValues(outcome).Inc()
}

// RecordMediaCall observes one media host call.
func RecordMediaCall(provider, path string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	MediaUploadDuration.WithLabelValues(provider, path, outcome).Observe(duration.Seconds())
}

// RecordBreakerTransition stores the new state and counts the transition.
// State values: 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordStoreOperation observes a store call and counts its error, if any.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		StoreOperationErrors.WithLabelValues(operation, collection, errorType).Inc()
	}
}

// RecordStoreGC counts a value log GC run.
func RecordStoreGC(result string) {
	StoreGCRuns.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a catalog cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CatalogCacheHits.Inc()
		return
	}
	CatalogCacheMisses.Inc()
}

// SetCacheEntries publishes the catalog cache size.
func SetCacheEntries(n int) {
	CatalogCacheEntries.Set(float64(n))
}

// RecordFormSubmission counts a public form submission.
func RecordFormSubmission(form, result string) {
	FormSubmissions.WithLabelValues(form, result).Inc()
}
