// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides Prometheus metrics for the revision engine.
//
// # Description
//
// Metrics cover the review lifecycle:
//   - Operation counters (by operation and outcome)
//   - Operation latency histograms
//   - Active change-set gauge
//   - Rollback counter for failed batch accepts
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "revise"

// Subsystem for review metrics
const reviewSubsystem = "review"

// Metrics holds all Prometheus metrics for the revision engine.
//
// Initialize once at startup via NewMetrics with the registry the host
// exposes; instances are injected rather than shared through a package
// singleton so tests can register against their own registries.
type Metrics struct {
	// OperationsTotal counts engine operations by operation and outcome.
	// Labels: operation (propose, accept, reject, accept_all, reject_all,
	// undo, delete), outcome (success, error)
	OperationsTotal *prometheus.CounterVec

	// OperationDurationSeconds measures operation latency.
	// Labels: operation
	OperationDurationSeconds *prometheus.HistogramVec

	// ActiveChangeSets tracks change sets currently open for review.
	ActiveChangeSets prometheus.Gauge

	// RollbacksTotal counts batch accepts that failed and rolled back.
	RollbacksTotal prometheus.Counter
}

// NewMetrics creates and registers all engine metrics.
//
// # Inputs
//
//   - reg: Registry to register with. Must not be nil.
//
// # Outputs
//
//   - *Metrics: The registered metrics instance.
//
// # Limitations
//
//   - Panics if called twice against the same registry (duplicate
//     registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "operations_total",
				Help:      "Total engine operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		OperationDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "operation_duration_seconds",
				Help:      "Engine operation latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),

		ActiveChangeSets: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "active_changesets",
				Help:      "Change sets currently open for review",
			},
		),

		RollbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reviewSubsystem,
				Name:      "rollbacks_total",
				Help:      "Batch accepts that failed and restored backups",
			},
		),
	}
}

// ObserveOperation records one operation's outcome and latency.
//
// # Inputs
//
//   - operation: Operation label value.
//   - start: When the operation began.
//   - err: The operation's result; non-nil counts as an error outcome.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
