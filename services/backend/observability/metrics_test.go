// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTurn(t *testing.T) {
	m := NewChatMetricsWithRegistry(prometheus.NewRegistry())

	m.RecordTurn(0.5, true)
	m.RecordTurn(1.5, true)
	m.RecordTurn(0.1, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("error")))
}

func TestGauges(t *testing.T) {
	m := NewChatMetricsWithRegistry(prometheus.NewRegistry())

	m.ActiveConnections.Inc()
	m.ActiveConnections.Inc()
	m.ActiveConnections.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))

	m.OpenSessions.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenSessions))
}
