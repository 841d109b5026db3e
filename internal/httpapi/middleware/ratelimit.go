package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SiteHeader carries the website id on inbound checks.
const SiteHeader = "x-website-id"

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

type limiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	mu    sync.Mutex
	m     map[string]*entry
	sweep time.Time
	now   func() time.Time
}

func newLimiter(perMin, burst int, ttl time.Duration) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		limit: rate.Limit(float64(perMin) / 60.0),
		burst: burst,
		ttl:   ttl,
		m:     make(map[string]*entry),
		now:   time.Now,
	}
}

func (l *limiter) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) > l.ttl {
		for k, e := range l.m {
			if now.Sub(e.seen) > l.ttl {
				delete(l.m, k)
			}
		}
		l.sweep = now
	}

	e := l.m[key]
	if e == nil {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// RateLimit limits requests per website id, falling back to the client IP
// when the header is missing. RateLimit(60, 10) allows 60 req/min with a
// burst of 10. A non-positive rate disables limiting.
func RateLimit(reqPerMin, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(reqPerMin, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(limitKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"Too many requests","error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SiteHeader)); id != "" {
		return "site:" + id
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
