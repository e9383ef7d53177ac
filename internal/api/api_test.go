package api

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"progsite-backend/config"
	"progsite-backend/internal/model"
	"progsite-backend/internal/push"
	"progsite-backend/internal/store"
)

var testDBSeq atomic.Int64

// newTestRouter builds a full router over an in-memory SQLite database.
func newTestRouter(t *testing.T, vapid push.VAPIDConfig) (*gin.Engine, store.Store, *push.Broadcaster) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Subscription{},
		&model.Notification{},
		&model.DeliveryLog{},
		&model.Announcement{},
		&model.Event{},
	)
	require.NoError(t, err)

	s := store.NewGormStore(db)
	broadcaster := push.NewBroadcaster(s, vapid, 4)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Content.CacheTTLSeconds = 60
	cfg.Push.PublicKey = vapid.PublicKey

	return NewRouter(s, broadcaster, cfg), s, broadcaster
}

func testVAPIDConfig() push.VAPIDConfig {
	return push.VAPIDConfig{
		PublicKey:  strings.Repeat("B", 87),
		PrivateKey: strings.Repeat("k", 43),
		Subject:    "mailto:webmaster@program.example.edu",
		TTL:        3600,
	}
}
