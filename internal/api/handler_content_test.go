package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncements_PublicListingAndCache(t *testing.T) {
	router, _, _ := newTestRouter(t, testVAPIDConfig())

	create := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/admin/announcements", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := create(`{"title":"Welcome week","body":"Schedule inside.","published":true,"pinned":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = create(`{"title":"Draft notice","body":"Not ready yet.","published":false}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Public listing carries only the published announcement.
	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/announcements", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []AnnouncementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Welcome week", listed[0].Title)
	assert.Empty(t, w.Header().Get("X-Cache"))

	// Second read is served from the cache.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/announcements", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	// An admin write flushes the cache.
	w = create(`{"title":"Second notice","body":"Now public.","published":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/announcements", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
	assert.Equal(t, "Welcome week", listed[0].Title, "pinned announcement stays first")
}

func TestAnnouncements_UpdateAndDelete(t *testing.T) {
	router, _, _ := newTestRouter(t, testVAPIDConfig())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/announcements",
		bytes.NewBufferString(`{"title":"Old title","body":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created AnnouncementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", fmt.Sprintf("/api/admin/announcements/%d", created.ID),
		bytes.NewBufferString(`{"title":"New title","body":"b","published":true}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated AnnouncementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "New title", updated.Title)
	assert.True(t, updated.Published)
	assert.NotEmpty(t, updated.PublishedAt, "publishing sets the publish date")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", fmt.Sprintf("/api/admin/announcements/%d", created.ID), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/api/admin/announcements/notanumber",
		bytes.NewBufferString(`{"title":"x","body":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvents_PublicListingShowsUpcomingOnly(t *testing.T) {
	router, _, _ := newTestRouter(t, testVAPIDConfig())

	create := func(title string, startsAt time.Time, published bool) {
		body := fmt.Sprintf(`{"title":%q,"startsAt":%q,"published":%t}`,
			title, startsAt.Format(time.RFC3339), published)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/admin/events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	create("Past open day", time.Now().Add(-48*time.Hour), true)
	create("Upcoming info session", time.Now().Add(48*time.Hour), true)
	create("Unpublished workshop", time.Now().Add(72*time.Hour), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/events", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Upcoming info session", listed[0].Title)

	// The admin listing shows everything.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/admin/events", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 3)
}
