package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	// the marketlink client sends X-Request-Id and W3C trace headers
	corsHeaders = "Authorization,Content-Type,X-Request-Id,traceparent,tracestate"
	corsMaxAge  = 10 * 60
)

// CORSMiddleware lets the listed browser origins call the API. "*" allows
// any origin without credentials. Preflights are answered here.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false

	for _, origin := range allowedOrigins {
		if origin == "*" {
			anyOrigin = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		ctx.Writer.Header().Add("Vary", "Origin")

		_, listed := allowed[origin]
		switch {
		case listed:
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
		case anyOrigin:
			ctx.Header("Access-Control-Allow-Origin", "*")
		default:
			ctx.Next()
			return
		}
		ctx.Header("Access-Control-Expose-Headers", requestIDHeader)

		preflight := ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != ""
		if preflight {
			ctx.Header("Access-Control-Allow-Methods", corsMethods)
			ctx.Header("Access-Control-Allow-Headers", corsHeaders)
			ctx.Header("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
