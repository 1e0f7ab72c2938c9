// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package observability provides Prometheus metrics for the chat backend.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "nydasbot"

const chatSubsystem = "chat"

// ChatMetrics holds the Prometheus metrics for conversational turns.
//
// # Fields
//
//   - TurnsTotal: Counter of completed turns by status (success, error).
//   - TurnDurationSeconds: Histogram of end-to-end turn latency.
//   - ActiveConnections: Gauge of open websocket connections.
//   - OpenSessions: Gauge of live sessions in the store.
type ChatMetrics struct {
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec
	ActiveConnections   prometheus.Gauge
	OpenSessions        prometheus.Gauge
}

// NewChatMetrics registers the chat metrics on the default registry.
// Call once at startup.
func NewChatMetrics() *ChatMetrics {
	return newChatMetrics(prometheus.DefaultRegisterer)
}

// NewChatMetricsWithRegistry registers on a custom registry. Used by
// tests to avoid duplicate registration panics.
func NewChatMetricsWithRegistry(reg prometheus.Registerer) *ChatMetrics {
	return newChatMetrics(reg)
}

func newChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	factory := promauto.With(reg)
	return &ChatMetrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turns_total",
				Help:      "Total number of conversational turns by status",
			},
			[]string{"status"},
		),
		TurnDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end turn latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"status"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "active_connections",
				Help:      "Number of open websocket connections",
			},
		),
		OpenSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "open_sessions",
				Help:      "Number of live sessions in the store",
			},
		),
	}
}

// RecordTurn records one completed turn with its outcome and duration.
func (m *ChatMetrics) RecordTurn(seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.TurnsTotal.WithLabelValues(status).Inc()
	m.TurnDurationSeconds.WithLabelValues(status).Observe(seconds)
}
