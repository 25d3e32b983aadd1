// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Gateway metrics
	gatewayCallsTotal   atomic.Int64
	gatewayErrorsTotal  atomic.Int64
	gatewayLatencyNanos atomic.Int64

	// Upload metrics
	uploadsTotal   atomic.Int64
	uploadErrors   atomic.Int64
	uploadRetries  atomic.Int64
	uploadedBytes  atomic.Int64
	publishesTotal atomic.Int64
	publishErrors  atomic.Int64

	// Session metrics
	sessionTransitions atomic.Int64
	providerEvents     atomic.Int64
	signRequests       atomic.Int64
	signRejections     atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordGatewayCall records a ledger gateway call with its duration and success status.
func (m *Metrics) RecordGatewayCall(duration time.Duration, err error) {
	m.gatewayCallsTotal.Add(1)
	m.gatewayLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.gatewayErrorsTotal.Add(1)
	}
}

// RecordUpload records an upload attempt outcome and payload size.
func (m *Metrics) RecordUpload(size int, err error) {
	m.uploadsTotal.Add(1)
	if err != nil {
		m.uploadErrors.Add(1)
		return
	}
	m.uploadedBytes.Add(int64(size))
}

// RecordUploadRetry records a retried submission.
func (m *Metrics) RecordUploadRetry() {
	m.uploadRetries.Add(1)
}

// RecordPublish records a publication saga outcome.
func (m *Metrics) RecordPublish(err error) {
	m.publishesTotal.Add(1)
	if err != nil {
		m.publishErrors.Add(1)
	}
}

// RecordSessionTransition records a session state change.
func (m *Metrics) RecordSessionTransition() {
	m.sessionTransitions.Add(1)
}

// RecordProviderEvent records a provider-emitted event.
func (m *Metrics) RecordProviderEvent() {
	m.providerEvents.Add(1)
}

// RecordSignRequest records a signing request and whether the provider declined it.
func (m *Metrics) RecordSignRequest(rejected bool) {
	m.signRequests.Add(1)
	if rejected {
		m.signRejections.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	GatewayCallsTotal   int64
	GatewayErrorsTotal  int64
	GatewayLatencyNanos int64
	UploadsTotal        int64
	UploadErrors        int64
	UploadRetries       int64
	UploadedBytes       int64
	PublishesTotal      int64
	PublishErrors       int64
	SessionTransitions  int64
	ProviderEvents      int64
	SignRequests        int64
	SignRejections      int64
	CacheHits           int64
	CacheMisses         int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		GatewayCallsTotal:   m.gatewayCallsTotal.Load(),
		GatewayErrorsTotal:  m.gatewayErrorsTotal.Load(),
		GatewayLatencyNanos: m.gatewayLatencyNanos.Load(),
		UploadsTotal:        m.uploadsTotal.Load(),
		UploadErrors:        m.uploadErrors.Load(),
		UploadRetries:       m.uploadRetries.Load(),
		UploadedBytes:       m.uploadedBytes.Load(),
		PublishesTotal:      m.publishesTotal.Load(),
		PublishErrors:       m.publishErrors.Load(),
		SessionTransitions:  m.sessionTransitions.Load(),
		ProviderEvents:      m.providerEvents.Load(),
		SignRequests:        m.signRequests.Load(),
		SignRejections:      m.signRejections.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
	}
}

// GatewayLatencyAvgMs returns the average gateway call latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) GatewayLatencyAvgMs() float64 {
	calls := m.gatewayCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.gatewayLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no cache operations have occurred.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.gatewayCallsTotal.Store(0)
	m.gatewayErrorsTotal.Store(0)
	m.gatewayLatencyNanos.Store(0)
	m.uploadsTotal.Store(0)
	m.uploadErrors.Store(0)
	m.uploadRetries.Store(0)
	m.uploadedBytes.Store(0)
	m.publishesTotal.Store(0)
	m.publishErrors.Store(0)
	m.sessionTransitions.Store(0)
	m.providerEvents.Store(0)
	m.signRequests.Store(0)
	m.signRejections.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
}
