package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/service"
)

func (h *Handler) ListFriends(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	friends, err := h.Friends.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get friends"})
		return
	}
	if friends == nil {
		friends = []domain.Friend{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *Handler) AddFriend(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	target, err := h.Friends.Add(c.Request.Context(), userID, req.Username)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrSelfFriend):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrRequestExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add friend"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":  target.ID,
		"username": target.Username,
		"status":   domain.FriendPending,
	})
}

func (h *Handler) AcceptFriend(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	err := h.Friends.Accept(c.Request.Context(), userID, req.UserID)
	if errors.Is(err, service.ErrNoRequest) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
