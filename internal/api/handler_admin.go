package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"progsite-backend/internal/store"
)

type cleanupRequest struct {
	Action  string `json:"action" binding:"required"`
	Confirm bool   `json:"confirm"`
}

// CleanupSubscriptions runs one of the blunt bulk operations over the
// subscription table. The confirm flag is the caller's confirmation step;
// none of the operations are reversible.
func (h *Handler) CleanupSubscriptions(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm must be true for bulk cleanup"})
		return
	}

	affected, err := h.store.CleanupSubscriptions(c.Request.Context(), store.CleanupAction(req.Action))
	if err != nil {
		if errors.Is(err, store.ErrUnknownCleanupAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "affected": affected})
}

// ListNotifications returns the recent broadcast records with their counts
// for the admin dashboard.
func (h *Handler) ListNotifications(c *gin.Context) {
	notifs, err := h.store.RecentNotifications(c.Request.Context(), openRateWindow)
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	type notificationResponse struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Body         string `json:"body"`
		URL          string `json:"url,omitempty"`
		SentCount    int    `json:"sentCount"`
		SuccessCount int    `json:"successCount"`
		ErrorCount   int    `json:"errorCount"`
		OpenCount    int    `json:"openCount"`
		CreatedBy    string `json:"createdBy,omitempty"`
		CreatedAt    string `json:"createdAt"`
		SentAt       string `json:"sentAt,omitempty"`
	}

	responses := make([]notificationResponse, 0, len(notifs))
	for _, n := range notifs {
		resp := notificationResponse{
			ID:           n.ID,
			Title:        n.Title,
			Body:         n.Body,
			URL:          n.URL,
			SentCount:    n.SentCount,
			SuccessCount: n.SuccessCount,
			ErrorCount:   n.ErrorCount,
			OpenCount:    n.OpenCount,
			CreatedBy:    n.CreatedBy,
			CreatedAt:    n.CreatedAt.UTC().Format(timeLayout),
		}
		if n.SentAt != nil {
			resp.SentAt = n.SentAt.UTC().Format(timeLayout)
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

type deleteNotificationsRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

// DeleteNotifications bulk-deletes broadcast records and their delivery logs.
func (h *Handler) DeleteNotifications(c *gin.Context) {
	var req deleteNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	affected, err := h.store.DeleteNotifications(c.Request.Context(), req.IDs)
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "affected": affected})
}
