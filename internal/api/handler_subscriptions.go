package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progsite-backend/internal/model"
)

type subscriptionKeys struct {
	P256DH string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type subscribeRequest struct {
	Endpoint string           `json:"endpoint" binding:"required"`
	Keys     subscriptionKeys `json:"keys" binding:"required"`
}

// Subscribe stores a browser push subscription. Re-subscribing the same
// endpoint overwrites the keys and reactivates the row.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := model.Subscription{
		Endpoint:  req.Endpoint,
		P256DH:    req.Keys.P256DH,
		Auth:      req.Keys.Auth,
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}

	if err := h.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe flags a subscription inactive. The row is kept; only the admin
// cleanup operations hard-delete.
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.DeactivateSubscriptionByEndpoint(c.Request.Context(), req.Endpoint); err != nil {
		abortWithTypedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetVAPIDPublicKey returns the VAPID public key to the client subscriber.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.vapidPublic == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.vapidPublic})
}
