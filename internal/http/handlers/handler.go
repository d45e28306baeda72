package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"game_theory_arena/internal/domain"
)

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

type Authenticator interface {
	Register(ctx context.Context, username, password string) (*domain.User, string, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type StatsReader interface {
	GetPlayerStats(ctx context.Context, userID string) (domain.PlayerStats, error)
}

type Friends interface {
	Add(ctx context.Context, userID, username string) (*domain.User, error)
	Accept(ctx context.Context, userID, requesterID string) error
	List(ctx context.Context, userID string) ([]domain.Friend, error)
}

type Leaderboards interface {
	Friends(ctx context.Context, userID string) ([]domain.LeaderboardEntry, error)
	Global(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// Handler serves the REST API. Every dependency is an interface so tests can
// run without postgres.
type Handler struct {
	Auth        Authenticator
	Users       UserReader
	Stats       StatsReader
	Friends     Friends
	Leaderboard Leaderboards
}

// getUserID reads the id RequireAuth stored on the context.
func getUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
