package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errNotJSON = gin.H{
	"code":    "unsupported_media_type",
	"message": "Content-Type must be application/json",
}

// RequireJSON refuses writes whose body is not JSON. Requests without a body
// (DELETE, or a bare POST) pass through.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			ctx.Next()
			return
		}
		if ctx.Request.ContentLength == 0 {
			ctx.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err != nil || mediaType != gin.MIMEJSON {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, errNotJSON)
			return
		}
		ctx.Next()
	}
}
