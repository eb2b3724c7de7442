// Package api is the gateway to the marketplace REST service. Every
// operation issues exactly one HTTP request; nothing is retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/geocoder89/marketlink/internal/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-Id"

// max error body we bother reading
const maxErrorBody = 64 << 10

type Options struct {
	HTTPClient *http.Client
	// Timeout of zero means requests wait as long as their context allows.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.ClientMetrics
}

type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	log     *slog.Logger
	metrics *observability.ClientMetrics
	tracer  trace.Tracer
}

func New(baseURL string, sess *session.Session, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		session: sess,
		log:     log,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("marketlink/api"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Session() *session.Session { return c.session }

// call describes one request.
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	bearer   bool   // attach the stored token when present
	fallback string // generic failure reason
}

// do performs the request and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, in call, out any) error {
	ctx = observability.WithRequestID(ctx, uuid.NewString())
	ctx, span := c.tracer.Start(ctx, "api."+in.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, in, out)
	elapsed := time.Since(start)

	c.metrics.ObserveCall(in.op, status, elapsed, err)
	span.SetAttributes(
		attribute.String("http.request.method", in.method),
		attribute.String("url.path", in.path),
		attribute.Int("http.response.status_code", status),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.WarnContext(ctx, "api_call_failed", "op", in.op, "method", in.method, "path", in.path,
			"status", status, "latency_ms", elapsed.Milliseconds(), "err", err)
		return err
	}

	c.log.DebugContext(ctx, "api_call", "op", in.op, "method", in.method, "path", in.path,
		"status", status, "latency_ms", elapsed.Milliseconds())
	return nil
}

func (c *Client) roundTrip(ctx context.Context, in call, out any) (int, error) {
	req, requestID, err := c.newRequest(ctx, in)
	if err != nil {
		return 0, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("%s: %w", in.op, ctxErr)
		}
		return 0, &ConnectivityError{Op: in.op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, c.decodeFailure(in, res, requestID)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return res.StatusCode, nil
		}
		return res.StatusCode, fmt.Errorf("%s: decode response: %w", in.op, err)
	}

	return res.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, string, error) {
	u := c.baseURL + in.path
	if len(in.query) > 0 {
		u += "?" + in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return nil, "", fmt.Errorf("%s: encode request: %w", in.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, u, body)
	if err != nil {
		return nil, "", fmt.Errorf("%s: build request: %w", in.op, err)
	}

	requestID, _ := observability.RequestIDFrom(ctx)
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if in.bearer && c.session != nil {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", in.op, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, requestID, nil
}

func (c *Client) decodeFailure(in call, res *http.Response, requestID string) error {
	reqErr := &RequestError{
		Op:        in.op,
		Status:    res.StatusCode,
		Message:   in.fallback,
		RequestID: requestID,
	}
	if echoed := res.Header.Get(requestIDHeader); echoed != "" {
		reqErr.RequestID = echoed
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return reqErr
	}

	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		return reqErr
	}

	if msg := body.message(); msg != "" {
		reqErr.Message = msg
	}
	reqErr.Code = body.code()

	return reqErr
}
