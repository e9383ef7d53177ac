package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"progsite-backend/config"
	"progsite-backend/internal/api"
	"progsite-backend/internal/model"
	"progsite-backend/internal/push"
	"progsite-backend/internal/store"
)

// recordingSender captures the payloads the broadcaster hands to the push
// transport and answers with a fixed status.
type recordingSender struct {
	payloads [][]byte
	status   int
}

func (r *recordingSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	r.payloads = append(r.payloads, payload)
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}, nil
}

// TestPushLifecycle walks the whole pipeline: a client subscribes, an admin
// broadcasts, the client opens the notification, and the open rate reflects it.
func TestPushLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:integration_push?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(
		&model.Subscription{},
		&model.Notification{},
		&model.DeliveryLog{},
		&model.Announcement{},
		&model.Event{},
	)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Content.CacheTTLSeconds = 60
	cfg.Push.PublicKey = strings.Repeat("B", 87)
	cfg.Push.PrivateKey = strings.Repeat("k", 43)
	cfg.Push.Subject = "mailto:webmaster@program.example.edu"
	cfg.Push.TTL = 3600
	cfg.Fanout.Workers = 4

	appStore := store.NewGormStore(testDB)
	broadcaster := push.NewBroadcaster(appStore, push.NewVAPIDConfig(&cfg.Push), cfg.Fanout.Workers)
	sender := &recordingSender{status: http.StatusCreated}
	broadcaster.SetSender(sender)

	router := api.NewRouter(appStore, broadcaster, cfg)

	doJSON := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req, _ := http.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		router.ServeHTTP(w, req)
		return w
	}

	var notificationID int64

	t.Run("client subscribes", func(t *testing.T) {
		w := doJSON("POST", "/api/subscriptions",
			`{"endpoint":"https://push.example.com/client-1","keys":{"p256dh":"pk","auth":"ak"}}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("admin broadcasts", func(t *testing.T) {
		w := doJSON("POST", "/api/admin/broadcast",
			`{"title":"Curriculum updated","body":"See what changed.","url":"/curriculum","adminEmail":"admin@program.example.edu"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Sent           int   `json:"sent"`
			Errors         int   `json:"errors"`
			Total          int   `json:"total"`
			NotificationID int64 `json:"notificationId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Sent)
		assert.Equal(t, 0, resp.Errors)
		assert.Equal(t, 1, resp.Total)
		notificationID = resp.NotificationID

		require.Len(t, sender.payloads, 1)
		assert.Contains(t, string(sender.payloads[0]), "Curriculum updated")
	})

	t.Run("client opens the notification", func(t *testing.T) {
		w := doJSON("POST", "/api/notifications/track-open",
			fmt.Sprintf(`{"notificationId": %d}`, notificationID))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)

		var n model.Notification
		require.NoError(t, testDB.First(&n, notificationID).Error)
		assert.Equal(t, 1, n.OpenCount)
	})

	t.Run("open rate reflects the open", func(t *testing.T) {
		w := doJSON("GET", "/api/admin/open-rates", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success   bool           `json:"success"`
			OpenRates map[string]int `json:"openRates"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 100, resp.OpenRates[fmt.Sprintf("%d", notificationID)])
	})

	t.Run("gone endpoint is deactivated on the next broadcast", func(t *testing.T) {
		sender.status = http.StatusGone

		w := doJSON("POST", "/api/admin/broadcast", `{"title":"Second notice","body":"b"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(0), resp["sent"])
		assert.Equal(t, float64(1), resp["errors"])

		var sub model.Subscription
		require.NoError(t, testDB.First(&sub, "endpoint = ?", "https://push.example.com/client-1").Error)
		assert.False(t, sub.Active)
	})

	t.Run("broadcast with no remaining subscribers sends nothing", func(t *testing.T) {
		w := doJSON("POST", "/api/admin/broadcast", `{"title":"Third notice","body":"b"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(0), resp["total"])
	})

	t.Run("admin cleans up inactive subscriptions", func(t *testing.T) {
		w := doJSON("POST", "/api/admin/subscriptions/cleanup", `{"action":"inactive","confirm":true}`)
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		testDB.Model(&model.Subscription{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}
