package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/response"
)

// RateLimiter is a per-IP token bucket guarding the credential-free
// surfaces: login and the candidate session endpoints, where tokens
// could otherwise be brute-forced.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	interval time.Duration
}

type bucket struct {
	remaining int
	refilled  time.Time
}

// take refills the bucket for elapsed whole intervals, then tries to
// consume one token.
func (b *bucket) take(capacity int, interval time.Duration) bool {
	if n := int(time.Since(b.refilled) / interval); n > 0 {
		b.remaining += n * capacity
		if b.remaining > capacity {
			b.remaining = capacity
		}
		b.refilled = time.Now()
	}
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// NewRateLimiter allows capacity requests per interval per client IP.
func NewRateLimiter(capacity int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		interval: interval,
	}
	go rl.evictLoop()
	return rl
}

// Middleware rejects requests with 429 once a client's bucket is empty.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		b, ok := rl.buckets[ip]
		if !ok {
			b = &bucket{remaining: rl.capacity, refilled: time.Now()}
			rl.buckets[ip] = b
		}
		allowed := b.take(rl.capacity, rl.interval)
		rl.mu.Unlock()

		if !allowed {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// evictLoop drops buckets idle for three intervals so the map does not
// grow with every IP ever seen.
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-3 * rl.interval)
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			if b.refilled.Before(cutoff) {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}
