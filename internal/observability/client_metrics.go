package observability

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// ClientMetrics counts marketplace API calls made by this client.
type ClientMetrics struct {
	reg prometheus.Gatherer

	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	CallErrors   *prometheus.CounterVec
}

func NewClientMetrics(reg *prometheus.Registry) *ClientMetrics {
	m := &ClientMetrics{
		reg: reg,
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketlink",
				Subsystem: "api",
				Name:      "calls_total",
				Help:      "Marketplace API calls by operation and HTTP status.",
			},
			[]string{"op", "status"},
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "marketlink",
				Subsystem: "api",
				Name:      "call_duration_seconds",
				Help:      "Marketplace API call latency.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"op"},
		),
		CallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketlink",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Failed marketplace API calls by operation and class.",
			},
			[]string{"op", "class"},
		),
	}
	reg.MustRegister(m.CallsTotal, m.CallDuration, m.CallErrors)

	return m
}

// ErrorClass lets callers label their own error types.
type ErrorClass interface {
	MetricClass() string
}

// ObserveCall records one API call. status is 0 when no response arrived.
func (m *ClientMetrics) ObserveCall(op string, status int, d time.Duration, err error) {
	if m == nil {
		return
	}

	statusLabel := "none"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}

	m.CallsTotal.WithLabelValues(op, statusLabel).Inc()
	m.CallDuration.WithLabelValues(op).Observe(d.Seconds())

	if err != nil {
		m.CallErrors.WithLabelValues(op, classifyErr(err)).Inc()
	}
}

func classifyErr(err error) string {
	var c ErrorClass
	if errors.As(err, &c) {
		return c.MetricClass()
	}
	return "other"
}

type CallStat struct {
	Op     string
	Status string
	Count  uint64
}

// Snapshot flattens calls_total into rows sorted by op then status.
func (m *ClientMetrics) Snapshot() ([]CallStat, error) {
	if m == nil {
		return nil, nil
	}

	families, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}

	var out []CallStat
	for _, mf := range families {
		if mf.GetName() != "marketlink_api_calls_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			out = append(out, CallStat{
				Op:     labelValue(metric, "op"),
				Status: labelValue(metric, "status"),
				Count:  uint64(metric.GetCounter().GetValue()),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
