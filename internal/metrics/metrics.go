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
	// Node RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Provider operation metrics (enable, sign, submit)
	providerOpsTotal  atomic.Int64
	providerOpsErrors atomic.Int64

	// Transaction pipeline metrics
	txSubmitted atomic.Int64
	txConfirmed atomic.Int64
	txFailed    atomic.Int64

	// Read-only query metrics
	queriesTotal    atomic.Int64
	queriesDegraded atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a node RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordProviderOp records a wallet provider operation.
func (m *Metrics) RecordProviderOp(err error) {
	m.providerOpsTotal.Add(1)
	if err != nil {
		m.providerOpsErrors.Add(1)
	}
}

// RecordSubmission records a submitted transaction.
func (m *Metrics) RecordSubmission() {
	m.txSubmitted.Add(1)
}

// RecordSettlement records a terminal receipt outcome.
func (m *Metrics) RecordSettlement(confirmed bool) {
	if confirmed {
		m.txConfirmed.Add(1)
	} else {
		m.txFailed.Add(1)
	}
}

// RecordQuery records a read-only circuit query and whether it degraded to
// its zero value.
func (m *Metrics) RecordQuery(degraded bool) {
	m.queriesTotal.Add(1)
	if degraded {
		m.queriesDegraded.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal     int64
	RPCErrorsTotal    int64
	RPCLatencyNanos   int64
	ProviderOpsTotal  int64
	ProviderOpsErrors int64
	TxSubmitted       int64
	TxConfirmed       int64
	TxFailed          int64
	QueriesTotal      int64
	QueriesDegraded   int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:     m.rpcCallsTotal.Load(),
		RPCErrorsTotal:    m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:   m.rpcLatencyNanos.Load(),
		ProviderOpsTotal:  m.providerOpsTotal.Load(),
		ProviderOpsErrors: m.providerOpsErrors.Load(),
		TxSubmitted:       m.txSubmitted.Load(),
		TxConfirmed:       m.txConfirmed.Load(),
		TxFailed:          m.txFailed.Load(),
		QueriesTotal:      m.queriesTotal.Load(),
		QueriesDegraded:   m.queriesDegraded.Load(),
	}
}

// RPCLatencyAvgMs returns the average node RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// QueryDegradationRate returns the share of queries that degraded to zero,
// as a percentage (0-100). Returns 0 if no queries have run.
func (m *Metrics) QueryDegradationRate() float64 {
	total := m.queriesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.queriesDegraded.Load()) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.providerOpsTotal.Store(0)
	m.providerOpsErrors.Store(0)
	m.txSubmitted.Store(0)
	m.txConfirmed.Store(0)
	m.txFailed.Store(0)
	m.queriesTotal.Store(0)
	m.queriesDegraded.Store(0)
}
