package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"game_theory_arena/internal/game"
)

// IdentityResolver turns a bearer token into a user id and display name.
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (userID, username string, err error)
}

type WSHandler struct {
	Hub      *Hub
	Resolver IdentityResolver
	// empty allows any origin
	AllowedOrigin string
}

func NewWSHandler(hub *Hub, resolver IdentityResolver, allowedOrigin string) *WSHandler {
	return &WSHandler{
		Hub:           hub,
		Resolver:      resolver,
		AllowedOrigin: allowedOrigin,
	}
}

func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, name, err := h.Resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.Hub.log.Debug("ws upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(uuid.NewString(), game.PlayerID(userID), name, conn, h.Hub)
		go client.Run()
	}
}
