package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"game_theory_arena/internal/http/handlers"
)

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (userID, username string, err error)
}

// RequireAuth accepts "Authorization: Bearer <jwt>" and stores the user id
// and name on the gin context.
func RequireAuth(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, username, err := resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(handlers.CtxUserID, userID)
		c.Set(handlers.CtxUsername, username)
		c.Next()
	}
}
