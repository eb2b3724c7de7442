package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole admits callers whose token role is one of allowed.
func (m *AuthMiddleware) RequireRole(allowed ...string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if _, ok := set[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "forbidden",
				"message": "Only sellers can do this",
			})
			return
		}
		c.Next()
	}
}
