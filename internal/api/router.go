package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"progsite-backend/config"
	"progsite-backend/internal/mw"
	"progsite-backend/internal/push"
	"progsite-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, broadcaster *push.Broadcaster, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	pageCacheTTL := time.Duration(cfg.Content.CacheTTLSeconds) * time.Second
	pageCache := cache.New(pageCacheTTL, 2*pageCacheTTL)

	handler := NewHandler(s, broadcaster, cfg.Push.PublicKey, pageCache)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	caching := mw.Cache(pageCache, pageCacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public content
		api.GET("/announcements", caching, handler.ListAnnouncements)
		api.GET("/events", caching, handler.ListEvents)

		// Client subscriber
		api.GET("/vapid-public-key", handler.GetVAPIDPublicKey)
		api.POST("/subscriptions", handler.Subscribe)
		api.DELETE("/subscriptions", handler.Unsubscribe)

		// Open tracking: called from the service worker, always soft-success.
		api.POST("/notifications/track-open", handler.TrackOpen)

		admin := api.Group("/admin")
		{
			admin.POST("/broadcast", handler.Broadcast)
			admin.GET("/notifications", handler.ListNotifications)
			admin.DELETE("/notifications", handler.DeleteNotifications)
			admin.GET("/open-rates", handler.GetOpenRates)
			admin.POST("/subscriptions/cleanup", handler.CleanupSubscriptions)

			admin.GET("/announcements", handler.AdminListAnnouncements)
			admin.POST("/announcements", handler.CreateAnnouncement)
			admin.PUT("/announcements/:id", handler.UpdateAnnouncement)
			admin.DELETE("/announcements/:id", handler.DeleteAnnouncement)

			admin.GET("/events", handler.AdminListEvents)
			admin.POST("/events", handler.CreateEvent)
			admin.PUT("/events/:id", handler.UpdateEvent)
			admin.DELETE("/events/:id", handler.DeleteEvent)
		}
	}

	return r
}
