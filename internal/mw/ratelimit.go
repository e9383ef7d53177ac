package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterEntry pairs a token bucket with its last use, so idle client
// entries can be pruned instead of growing the map forever.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter stores a rate limiter per client IP.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	r       rate.Limit
	b       int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		entries: make(map[string]*limiterEntry),
		r:       r,
		b:       b,
	}
}

// GetLimiter returns the rate limiter for an IP address, creating one if
// needed.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.entries[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.entries[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// prune drops entries not seen within maxIdle.
func (i *IPRateLimiter) prune(maxIdle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, entry := range i.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(i.entries, ip)
		}
	}
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)

	go func() {
		for range time.Tick(10 * time.Minute) {
			limiter.prune(30 * time.Minute)
		}
	}()

	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
