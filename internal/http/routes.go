// Package http assembles the gin engine: REST API, websocket endpoint,
// health and metrics.
package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"game_theory_arena/internal/http/handlers"
	"game_theory_arena/internal/http/middleware"
)

type Deps struct {
	Handler     *handlers.Handler
	Auth        middleware.TokenResolver
	WS          gin.HandlerFunc
	Metrics     nethttp.Handler
	Health      func(ctx context.Context) error
	RateLimiter *middleware.RateLimiter
	Log         *zap.Logger
	// empty allows any origin
	AllowedOrigin string
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = []string{origin}
	}
	return cfg
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log.Named("http")))
	r.Use(cors.New(corsConfig(d.AllowedOrigin)))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	if d.WS != nil {
		r.GET("/ws", d.WS)
	}

	RegisterRoutes(r, d.Handler, d.Auth, d.RateLimiter)
	return r
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, auth middleware.TokenResolver, limiter *middleware.RateLimiter) {
	api := r.Group("/api")
	api.Use(limiter.Middleware())

	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(auth))
	authed.GET("/me", h.Me)
	authed.GET("/friends", h.ListFriends)
	authed.POST("/friends/add", h.AddFriend)
	authed.POST("/friends/accept", h.AcceptFriend)
	authed.GET("/leaderboard", h.GetLeaderboard)
	authed.GET("/leaderboard/global", h.GetGlobalLeaderboard)
}
