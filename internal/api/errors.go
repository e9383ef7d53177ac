package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"progsite-backend/internal/push"
)

// Error type codes exposed to the admin UI.
const (
	errTypeVAPIDConfig   = "VAPID_CONFIG_ERROR"
	errTypeDatabaseTable = "DATABASE_TABLE_ERROR"
	errTypeDatabase      = "DATABASE_ERROR"
	errTypeInternal      = "INTERNAL_ERROR"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Type    string `json:"type"`
}

// abortWithTypedError classifies an error from the store or the broadcaster
// and writes the structured error object the admin UI understands. Handlers
// call it only for failures that affect the primary requested outcome;
// secondary bookkeeping errors are absorbed closer to where they occur.
func abortWithTypedError(c *gin.Context, err error) {
	var cfgErr *push.ConfigError
	if errors.As(err, &cfgErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Error:   "Push notifications are not configured",
			Details: cfgErr.Reason,
			Type:    errTypeVAPIDConfig,
		})
		return
	}

	msg := err.Error()
	if isMissingTableError(msg) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Error:   "Database tables are missing; run migrations",
			Details: msg,
			Type:    errTypeDatabaseTable,
		})
		return
	}
	if strings.Contains(msg, "failed to encode") {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Error:   "Internal error",
			Details: msg,
			Type:    errTypeInternal,
		})
		return
	}

	// Everything else on these paths is a database operation that failed.
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
		Error:   "Database operation failed",
		Details: msg,
		Type:    errTypeDatabase,
	})
}

// isMissingTableError recognizes the "relation does not exist" family of
// errors from postgres (42P01) and sqlite.
func isMissingTableError(msg string) bool {
	return strings.Contains(msg, "42P01") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "no such table")
}
