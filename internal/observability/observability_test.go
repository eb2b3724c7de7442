package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type classedErr struct{ class string }

func (e classedErr) Error() string       { return e.class }
func (e classedErr) MetricClass() string { return e.class }

func TestClientMetricsSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)

	m.ObserveCall("login", 200, 10*time.Millisecond, nil)
	m.ObserveCall("login", 401, 5*time.Millisecond, classedErr{"client_error"})
	m.ObserveCall("login", 200, 7*time.Millisecond, nil)
	m.ObserveCall("list_products", 0, time.Second, errors.New("dial tcp: refused"))

	stats, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	want := []CallStat{
		{Op: "list_products", Status: "none", Count: 1},
		{Op: "login", Status: "200", Count: 2},
		{Op: "login", Status: "401", Count: 1},
	}
	if len(stats) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(stats), len(want), stats)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestClientMetricsNilIsNoop(t *testing.T) {
	var m *ClientMetrics
	m.ObserveCall("login", 200, time.Millisecond, nil)

	stats, err := m.Snapshot()
	if err != nil || stats != nil {
		t.Fatalf("expected empty snapshot, got %v, %v", stats, err)
	}
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("dev", LoggerOptions{Out: &buf})

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id = %v", rec["trace_id"])
	}
}

func TestLoggerQuiet(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("dev", LoggerOptions{Out: &buf, Quiet: true, Text: true})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered in quiet mode: %s", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written")
	}
}

func TestLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("prod", LoggerOptions{Out: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["request_id"] != "req-1" {
		t.Fatalf("request_id = %v", rec["request_id"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span in ctx, trace_id should be absent")
	}

	if _, ok := RequestIDFrom(WithRequestID(context.Background(), "")); ok {
		t.Fatalf("empty id should not be stored")
	}
}
