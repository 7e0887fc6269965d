package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablebuddy"

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	turns               *prometheus.CounterVec
	reservationCalls    *prometheus.CounterVec
	classifierFallbacks prometheus.Counter
	llmTokens           *prometheus.CounterVec
}

// New creates the service counters and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns handled, by classified intent.",
		}, []string{"intent"}),
		reservationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_calls_total",
			Help:      "Calls to the reservation backend, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		classifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_fallbacks_total",
			Help:      "Classifier calls that degraded to the unknown intent because of an error.",
		}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens reported by the LLM provider, by direction.",
		}, []string{"direction"}),
	}

	for _, c := range []prometheus.Collector{m.turns, m.reservationCalls, m.classifierFallbacks, m.llmTokens} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveTurn(intent string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveReservationCall(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.reservationCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveClassifierFallback() {
	if m == nil {
		return
	}
	m.classifierFallbacks.Inc()
}

func (m *Metrics) ObserveTokens(input, output int) {
	if m == nil {
		return
	}
	m.llmTokens.WithLabelValues("input").Add(float64(input))
	m.llmTokens.WithLabelValues("output").Add(float64(output))
}
