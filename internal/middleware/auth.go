// internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/taskpulse/pkg/auth"
)

// Authenticator resolves a raw token into a request context carrying the
// caller's identity. It fails for malformed, expired or unknown tokens and for
// inactive users.
type Authenticator func(ctx context.Context, token string) (context.Context, error)

// RequireAuth rejects requests without a valid token. The cookie named
// cookieName is consulted first, then the Authorization bearer header.
func RequireAuth(cookieName string, authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			abortUnauthorized(c, "Not authenticated")
			return
		}

		ctx, err := authenticate(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "Could not validate credentials")
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole only lets through callers whose role is one of roles. It must
// run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c.Request.Context())
		if !ok {
			abortUnauthorized(c, "Not authenticated")
			return
		}
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Insufficient privileges"})
			return
		}
		c.Next()
	}
}

// TokenFromRequest returns the auth cookie value or, failing that, the bearer
// token from the Authorization header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	token, err := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
