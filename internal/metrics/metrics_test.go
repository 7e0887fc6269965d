package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveTurn("check_availability")
	m.ObserveTurn("check_availability")
	m.ObserveReservationCall("search_availability", nil)
	m.ObserveReservationCall("create_booking", errors.New("slot taken"))
	m.ObserveClassifierFallback()
	m.ObserveTokens(120, 30)
	m.ObserveTokens(80, 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("check_availability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservationCalls.WithLabelValues("search_availability", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservationCalls.WithLabelValues("create_booking", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifierFallbacks))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("input")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("output")))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("unknown")
		m.ObserveReservationCall("get_booking", nil)
		m.ObserveClassifierFallback()
		m.ObserveTokens(1, 1)
	})
}
