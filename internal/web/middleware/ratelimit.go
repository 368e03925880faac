package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/metrics"
)

// visitorIdle is how long an unused per-IP bucket is kept.
const visitorIdle = 10 * time.Minute

// RateLimiter hands out one token bucket per client IP. Buckets live in a
// TTL cache so idle clients are forgotten without a sweeper of our own.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *gocache.Cache
	metrics *metrics.Metrics
}

// NewRateLimiter builds a limiter allowing cfg.RequestsPerMinute sustained
// with cfg.Burst on top.
func NewRateLimiter(cfg config.RateLimitConfig, m *metrics.Metrics) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:   burst,
		buckets: gocache.New(visitorIdle, visitorIdle),
		metrics: m,
	}
}

// Allow takes a token from ip's bucket.
func (l *RateLimiter) Allow(ip string) bool {
	return l.bucket(ip).Allow()
}

func (l *RateLimiter) bucket(ip string) *rate.Limiter {
	if v, ok := l.buckets.Get(ip); ok {
		l.buckets.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if err := l.buckets.Add(ip, lim, gocache.DefaultExpiration); err != nil {
		// Lost the race to another request from the same client.
		if v, ok := l.buckets.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// retryAfter is the whole seconds until one token is available.
func (l *RateLimiter) retryAfter() int {
	if l.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(l.limit)))
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !l.Allow(ip) {
			l.metrics.RateLimited()
			logging.FromContext(r.Context()).Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)

			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate limit exceeded",
				"message": "Too many requests",
				"action":  "Wait a moment before trying again",
				"code":    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
