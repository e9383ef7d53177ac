package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progsite-backend/internal/push"
)

type broadcastRequest struct {
	Title              string `json:"title" binding:"required"`
	Body               string `json:"body" binding:"required"`
	URL                string `json:"url"`
	Icon               string `json:"icon"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"requireInteraction"`
	AdminEmail         string `json:"adminEmail"`
}

// Broadcast delivers a notification to every active subscription and reports
// the per-subscription counts.
func (h *Handler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.broadcaster.Broadcast(c.Request.Context(), push.Message{
		Title:              req.Title,
		Body:               req.Body,
		URL:                req.URL,
		Icon:               req.Icon,
		Tag:                req.Tag,
		RequireInteraction: req.RequireInteraction,
		AdminEmail:         req.AdminEmail,
	})
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sent":           res.Sent,
		"errors":         res.Errors,
		"total":          res.Total,
		"notificationId": res.NotificationID,
	})
}
