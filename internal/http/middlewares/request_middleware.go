package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	CtxRequestID    = "request_id"
)

// RequestID echoes the caller's X-Request-Id (the marketlink client sends
// one per call) or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(observability.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()
	}
}

// RequestLogger writes one http_request line per request. request_id and
// trace ids come from the request context via observability.TraceHandler.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		method := ctx.Request.Method

		ctx.Next()

		lat := time.Since(start)
		status := ctx.Writer.Status()

		logAttrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", lat.Milliseconds(),
		}

		if uid, ok := UserIDFromContext(ctx); ok {
			logAttrs = append(logAttrs, "user_id", uid)
		}

		log.InfoContext(ctx.Request.Context(), "http_request", logAttrs...)
	}
}
