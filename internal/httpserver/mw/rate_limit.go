package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/utils"
)

// RateLimitConfig tunes the per-client token bucket guarding catalog writes.
type RateLimitConfig struct {
	Burst             int              // bucket capacity
	RefillPerIPPerMin int              // tokens added per minute
	MaxEntries        int              // sweep idle clients once this many are tracked (0 = unbounded)
	SweepInterval     time.Duration    // how often idle clients are swept
	IdleTTL           time.Duration    // a client unseen this long is forgotten
	TrustProxy        bool             // resolve the client IP from proxy headers
	Now               func() time.Time // clock, defaults to time.Now
}

func (c *RateLimitConfig) defaults() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	c.Burst = max(c.Burst, 1)
	c.RefillPerIPPerMin = max(c.RefillPerIPPerMin, 1)
	if c.Now == nil {
		c.Now = time.Now
	}
}

type tokens struct {
	level    float64
	refilled time.Time
	seen     time.Time
}

// writeLimiter holds one bucket per client IP.
type writeLimiter struct {
	cfg      RateLimitConfig
	perSec   float64
	mu       sync.Mutex
	clients  map[string]*tokens
	lastSweep time.Time
}

func newWriteLimiter(cfg RateLimitConfig) *writeLimiter {
	cfg.defaults()
	return &writeLimiter{
		cfg:      cfg,
		perSec:   float64(cfg.RefillPerIPPerMin) / 60.0,
		clients:  make(map[string]*tokens),
		lastSweep: cfg.Now(),
	}
}

// take consumes one token for ip. When none is left it reports how many
// seconds until the next one.
func (l *writeLimiter) take(ip string) (ok bool, remaining, retryAfter int) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.clients) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.forgetIdle(now)
	}

	t, known := l.clients[ip]
	if !known {
		t = &tokens{level: float64(l.cfg.Burst), refilled: now}
		l.clients[ip] = t
	}
	t.seen = now

	if elapsed := now.Sub(t.refilled).Seconds(); elapsed > 0 {
		t.level = math.Min(float64(l.cfg.Burst), t.level+elapsed*l.perSec)
		t.refilled = now
	}

	if t.level < 1 {
		wait := int(math.Ceil((1 - t.level) / l.perSec))
		return false, 0, max(wait, 1)
	}
	t.level--
	return true, int(t.level), 0
}

func (l *writeLimiter) forgetIdle(now time.Time) {
	for ip, t := range l.clients {
		if now.Sub(t.seen) > l.cfg.IdleTTL {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects requests with 429 once a client IP has used up its bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newWriteLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(utils.ClientIP(r, l.cfg.TrustProxy))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				reject(w, http.StatusTooManyRequests, "too many requests, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
