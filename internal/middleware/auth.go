package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prico-realtime/internal/auth"
)

const (
	// IdentityKey is the gin context key holding the full auth.Identity.
	IdentityKey = "identity"
	// UserIDKey is the gin context key holding the authenticated user id.
	UserIDKey = "userID"
)

// AuthMiddleware validates the Authorization header with the token
// verifier and attaches the identity to the request context.
func AuthMiddleware(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.UserID)
		c.Next()
	}
}
