package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit. A declared Content-Length over
// the cap is refused up front with 413; chunked bodies are cut off while
// reading and surface as a bind error.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	tooLarge := gin.H{
		"code":    "payload_too_large",
		"message": "Request body must be at most " + strconv.FormatInt(limit>>20, 10) + "MB",
	}

	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > limit {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}

		ctx.Next()
	}
}
