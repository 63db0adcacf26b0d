// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes recorded by the manager.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeTransportError = "transport_error"
	OutcomeStoreError     = "store_error"
)

var (
	// operationsTotal counts manager operations by outcome.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecotrack_auth_operations_total",
		Help: "Total number of session manager operations by operation and outcome",
	}, []string{"operation", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecotrack_auth_operation_duration_seconds",
		Help:    "Histogram of session manager operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func recordOperation(operation, outcome string, started time.Time) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
