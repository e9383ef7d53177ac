package api

import (
	"time"

	"github.com/patrickmn/go-cache"

	"progsite-backend/internal/push"
	"progsite-backend/internal/store"
)

const timeLayout = time.RFC3339

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	broadcaster *push.Broadcaster
	vapidPublic string
	pageCache   *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, b *push.Broadcaster, vapidPublicKey string, pageCache *cache.Cache) *Handler {
	return &Handler{
		store:       s,
		broadcaster: b,
		vapidPublic: vapidPublicKey,
		pageCache:   pageCache,
	}
}

// invalidateContentCache drops cached public listings after an admin write.
func (h *Handler) invalidateContentCache() {
	if h.pageCache != nil {
		h.pageCache.Flush()
	}
}
