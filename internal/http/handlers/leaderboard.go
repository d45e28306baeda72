package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"game_theory_arena/internal/domain"
)

// the caller and their accepted friends
func (h *Handler) GetLeaderboard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := h.Leaderboard.Friends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *Handler) GetGlobalLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboard.Global(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
