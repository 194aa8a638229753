package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"schoolfood/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// ClientIPKey counts requests per client address. Used where nobody is
// authenticated yet, i.e. login.
func ClientIPKey(c *gin.Context) string { return "ip:" + c.ClientIP() }

// UserKey counts requests per authenticated user so students behind one
// school NAT do not share a budget. Without claims it falls back to the IP.
func UserKey(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*JWTClaims); ok && claims.UserID != "" {
			return "user:" + claims.UserID
		}
	}
	return ClientIPKey(c)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter allows up to limit requests per key in fixed windows.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow counts one request for key. When the key is over its limit it
// returns false and how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	if b.count > l.limit {
		return false, b.resetAt.Sub(now)
	}
	return true, 0
}

// sweep drops finished windows at most once per window. Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(l.window)
	purged := 0
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Int("purged", purged).
			Int("remaining", len(l.buckets)).
			Msg("rate limiter: buckets purged")
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After in
// seconds.
func (l *Limiter) Middleware(key KeyFunc, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(key(c))
		if !ok {
			secs := int((retry + time.Second - 1) / time.Second)
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

// RateLimiter limits each key to perMinute requests. perMinute <= 0 turns
// limiting off.
func RateLimiter(perMinute int, key KeyFunc) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return NewLimiter(perMinute, time.Minute).Middleware(key, "Too many requests")
}

// LoginRateLimiter limits login attempts per client IP.
func LoginRateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return NewLimiter(perMinute, time.Minute).Middleware(ClientIPKey, "Too many login attempts, try again in a minute")
}
