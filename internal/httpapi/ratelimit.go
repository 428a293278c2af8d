package httpapi

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces per-key (IP) request rate limits using token bucket.
type RateLimiter struct {
	limiters sync.Map // key → *limiterEntry

	mu    sync.Mutex
	r     rate.Limit // refill rate (requests per second)
	burst int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter. rpm is requests per minute, burst
// the max burst allowed. If rpm <= 0 the limiter always allows.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	rl := &RateLimiter{}
	rl.r, rl.burst = toLimit(rpm, burst)

	go rl.cleanupLoop()

	return rl
}

func toLimit(rpm, burst int) (rate.Limit, int) {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(0)
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60.0)
	}
	return r, burst
}

// SetLimits replaces the rate settings, updating existing per-key buckets
// in place so a reload takes effect without waiting for entry expiry.
func (rl *RateLimiter) SetLimits(rpm, burst int) {
	r, b := toLimit(rpm, burst)

	rl.mu.Lock()
	rl.r = r
	rl.burst = b
	rl.mu.Unlock()

	rl.limiters.Range(func(_, value any) bool {
		entry := value.(*limiterEntry)
		entry.limiter.SetLimit(r)
		entry.limiter.SetBurst(b)
		return true
	})
}

func (rl *RateLimiter) limits() (rate.Limit, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.r, rl.burst
}

// Allow checks if a request from the given key is allowed.
func (rl *RateLimiter) Allow(key string) bool {
	r, burst := rl.limits()
	if r == 0 {
		return true
	}
	entry := rl.getOrCreate(key, r, burst)
	if !entry.limiter.Allow() {
		slog.Warn("rate limited", "key", key)
		return false
	}
	entry.lastSeen = time.Now()
	return true
}

func (rl *RateLimiter) getOrCreate(key string, r rate.Limit, burst int) *limiterEntry {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(r, burst),
		lastSeen: time.Now(),
	}
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	rl.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		if entry.lastSeen.Before(cutoff) {
			rl.limiters.Delete(key)
		}
		return true
	})
}
