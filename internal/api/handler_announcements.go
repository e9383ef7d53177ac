package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"progsite-backend/internal/model"
)

// AnnouncementResponse represents the API shape of a single announcement.
type AnnouncementResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Category    string `json:"category,omitempty"`
	Pinned      bool   `json:"pinned"`
	Published   bool   `json:"published"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Author      string `json:"author,omitempty"`
}

func announcementResponse(a model.Announcement) AnnouncementResponse {
	resp := AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Category:  a.Category,
		Pinned:    a.Pinned,
		Published: a.Published,
		Author:    a.Author,
	}
	if a.PublishedAt != nil {
		resp.PublishedAt = a.PublishedAt.UTC().Format(timeLayout)
	}
	return resp
}

// ListAnnouncements handles the public announcement listing: published rows
// only, pinned first, then newest.
func (h *Handler) ListAnnouncements(c *gin.Context) {
	var announcements []model.Announcement
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("published = ?", true).
		Order("pinned DESC, published_at DESC").
		Find(&announcements).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve announcements"})
		return
	}

	responses := make([]AnnouncementResponse, 0, len(announcements))
	for _, a := range announcements {
		responses = append(responses, announcementResponse(a))
	}
	c.JSON(http.StatusOK, responses)
}

// AdminListAnnouncements returns every announcement, unpublished included.
func (h *Handler) AdminListAnnouncements(c *gin.Context) {
	var announcements []model.Announcement
	err := h.store.DB().WithContext(c.Request.Context()).
		Order("created_at DESC").
		Find(&announcements).Error
	if err != nil {
		abortWithTypedError(c, err)
		return
	}

	responses := make([]AnnouncementResponse, 0, len(announcements))
	for _, a := range announcements {
		responses = append(responses, announcementResponse(a))
	}
	c.JSON(http.StatusOK, responses)
}

type announcementRequest struct {
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body" binding:"required"`
	Category  string `json:"category"`
	Pinned    bool   `json:"pinned"`
	Published bool   `json:"published"`
	Author    string `json:"author"`
}

// CreateAnnouncement handles the admin creation of an announcement.
func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement := model.Announcement{
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		Pinned:    req.Pinned,
		Published: req.Published,
		Author:    req.Author,
	}
	if req.Published {
		now := time.Now()
		announcement.PublishedAt = &now
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(&announcement).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.JSON(http.StatusCreated, announcementResponse(announcement))
}

// UpdateAnnouncement handles the admin update of an announcement.
func (h *Handler) UpdateAnnouncement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.store.DB().WithContext(c.Request.Context())

	var announcement model.Announcement
	if err := db.First(&announcement, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
		} else {
			abortWithTypedError(c, err)
		}
		return
	}

	announcement.Title = req.Title
	announcement.Body = req.Body
	announcement.Category = req.Category
	announcement.Pinned = req.Pinned
	announcement.Author = req.Author
	if req.Published && !announcement.Published {
		now := time.Now()
		announcement.PublishedAt = &now
	}
	announcement.Published = req.Published

	if err := db.Save(&announcement).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.JSON(http.StatusOK, announcementResponse(announcement))
}

// DeleteAnnouncement handles the admin deletion of an announcement.
func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Delete(&model.Announcement{}, id).Error; err != nil {
		abortWithTypedError(c, err)
		return
	}

	h.invalidateContentCache()
	c.Status(http.StatusNoContent)
}
