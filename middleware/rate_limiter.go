package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func clientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return ip
}

// RateLimitMiddleware is the global per-IP token bucket fronting all traffic.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := getLimiter(clientIP(r))

		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getLimiter(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(5, 30)
		visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func CleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		mu.Lock()
		for ip, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, ip)
			}
		}
		mu.Unlock()
	}
}

type windowCounter struct {
	count       int
	windowStart time.Time
}

// FixedWindowLimiter enforces a per-IP attempt budget over a fixed window.
// It wraps the authentication endpoints; exceeding the budget returns 429
// with a retry-after hint regardless of whether earlier attempts succeeded.
type FixedWindowLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	visitors map[string]*windowCounter
	now      func() time.Time
}

func NewFixedWindowLimiter(window time.Duration, max int) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		window:   window,
		max:      max,
		visitors: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (l *FixedWindowLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[ip]
	if !exists || now.Sub(v.windowStart) >= l.window {
		l.visitors[ip] = &windowCounter{count: 1, windowStart: now}
		return true
	}

	v.count++
	return v.count <= l.max
}

func (l *FixedWindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"message":    "Too many requests, please try again later",
				"code":       "RATE_LIMITED",
				"retryAfter": int(l.window.Seconds()),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup drops windows that elapsed long ago. Run in its own goroutine.
func (l *FixedWindowLimiter) Cleanup() {
	for {
		time.Sleep(time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if l.now().Sub(v.windowStart) >= 2*l.window {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}
