package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/insightboard/insightboard/pkg/logger"
)

// IdentityKey is the gin context key holding the verified models.Identity.
const IdentityKey = "identity"

type identityCtxKey struct{}

// SessionVerifier is the minimal interface the gate depends on.
type SessionVerifier interface {
	Verify(raw string) (models.Identity, error)
}

// SessionMiddleware reads the session cookie and verifies it. A missing
// cookie and a rejected token both answer 401 but with different messages.
// On success the identity is stored on the gin context and on the request
// context before the next handler runs.
func SessionMiddleware(cookieName string, ver SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			logger.Warnf("access denied: session cookie not found (path=%s)", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		id, err := ver.Verify(raw)
		if err != nil {
			logger.Warnf("access denied: invalid or expired session token (path=%s)", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// IdentityFrom returns the identity set by SessionMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// WithIdentity attaches id to ctx for code below the HTTP layer.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext is the context.Context counterpart of IdentityFrom.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(models.Identity)
	return id, ok
}
