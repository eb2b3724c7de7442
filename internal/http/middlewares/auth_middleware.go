package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/marketlink/internal/auth"
	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Caller is the identity carried by a verified bearer token.
type Caller struct {
	UserID string
	Email  string
	Role   string
}

const ctxCallerKey = "auth.caller"

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": message,
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth admits requests with a valid "Authorization: Bearer" token.
// A missing token and an expired one get different messages so the client
// can tell "log in" from "log in again".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "Please log in to continue")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortUnauthorized(c, "Session expired, please log in again")
			return
		}

		c.Set(ctxCallerKey, Caller{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

func CallerFromContext(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(ctxCallerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	caller, ok := CallerFromContext(c)
	return caller.UserID, ok && caller.UserID != ""
}

func RoleFromContext(c *gin.Context) (string, bool) {
	caller, ok := CallerFromContext(c)
	return caller.Role, ok && caller.Role != ""
}
