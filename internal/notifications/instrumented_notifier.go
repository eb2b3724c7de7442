package notifications

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentedNotifier counts dispatch results by "sent" or "failed".
type InstrumentedNotifier struct {
	inner   Notifier
	results *prometheus.CounterVec
}

func NewInstrumentedNotifier(inner Notifier, results *prometheus.CounterVec) *InstrumentedNotifier {
	return &InstrumentedNotifier{inner: inner, results: results}
}

func (n *InstrumentedNotifier) SendOneTimeCode(ctx context.Context, input SendOneTimeCodeInput) error {
	err := n.inner.SendOneTimeCode(ctx, input)
	if n.results != nil {
		result := "sent"
		if err != nil {
			result = "failed"
		}
		n.results.WithLabelValues(result).Inc()
	}
	return err
}
