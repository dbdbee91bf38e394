package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets unused for the idle
// expiry are dropped, so a returning client starts with a full bucket.
type Limiter struct {
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

// New allows perMinute events per key with the given burst
func New(perMinute, burst int, idleExpiry time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: cache.New(idleExpiry, idleExpiry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

// Allow reports whether one more event for key fits in its bucket
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// RetryAfter is the time until the next token becomes available for key
func (l *Limiter) RetryAfter(key string) time.Duration {
	r := l.bucket(key).Reserve()
	defer r.Cancel()
	return r.Delay()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(key, lim)
	return lim
}
