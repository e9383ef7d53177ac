package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const openRateWindow = 20

type trackOpenRequest struct {
	NotificationID int64 `json:"notificationId"`
	SubscriptionID int64 `json:"subscriptionId"`
}

// TrackOpen marks a delivery-log row as opened. Every outcome, including
// failure, is reported as a soft success: tracking must never degrade the
// navigation it is attached to.
func (h *Handler) TrackOpen(c *gin.Context) {
	var req trackOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NotificationID == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "nothing to track"})
		return
	}

	opened, err := h.store.MarkDeliveryOpened(c.Request.Context(), req.NotificationID, req.SubscriptionID)
	if err != nil {
		log.Printf("open tracking failed for notification %d: %v", req.NotificationID, err)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "tracking recorded"})
		return
	}

	msg := "already recorded"
	if opened {
		msg = "open recorded"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// GetOpenRates reports the open percentage for the most recent notifications.
func (h *Handler) GetOpenRates(c *gin.Context) {
	rates, err := h.store.OpenRates(c.Request.Context(), openRateWindow)
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"openRates":         rates,
		"notificationCount": len(rates),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
