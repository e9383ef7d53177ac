package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"progsite-backend/internal/model"
)

// EventResponse represents the API shape of a single calendar event.
type EventResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt,omitempty"`
	Published   bool   `json:"published"`
}

func eventResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt.UTC().Format(timeLayout),
		Published:   e.Published,
	}
	if e.EndsAt != nil {
		resp.EndsAt = e.EndsAt.UTC().Format(timeLayout)
	}
	return resp
}

// ListEvents handles the public calendar listing: published upcoming events
// ordered by start time.
func (h *Handler) ListEvents(c *gin.Context) {
	var events []model.Event
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("published = ? AND starts_at >= ?", true, time.Now()).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, eventResponse(e))
	}
	c.JSON(http.StatusOK, responses)
}

// AdminListEvents returns every event, past and unpublished included.
func (h *Handler) AdminListEvents(c *gin.Context) {
	var events []model.Event
	err := h.store.DB().WithContext(c.Request.Context()).
		Order("starts_at DESC").
		Find(&events).Error
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, eventResponse(e))
	}
	c.JSON(http.StatusOK, responses)
}

type eventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"startsAt" binding:"required"`
	EndsAt      *time.Time `json:"endsAt"`
	Published   bool       `json:"published"`
}

// CreateEvent handles the admin creation of a calendar event.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Published:   req.Published,
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(&event).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.JSON(http.StatusCreated, eventResponse(event))
}

// UpdateEvent handles the admin update of a calendar event.
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.store.DB().WithContext(c.Request.Context())

	var event model.Event
	if err := db.First(&event, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		} else {
			abortWithTypedError(c, err)
		}
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.Published = req.Published

	if err := db.Save(&event).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.JSON(http.StatusOK, eventResponse(event))
}

// DeleteEvent handles the admin deletion of a calendar event.
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Delete(&model.Event{}, id).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.Status(http.StatusNoContent)
}
