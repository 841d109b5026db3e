package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_PerSite(t *testing.T) {
	h := RateLimit(60, 2)(okHandler())

	send := func(site string) int {
		req := httptest.NewRequest("POST", "/", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		req.Header.Set(SiteHeader, site)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, 200, send("a"))
	assert.Equal(t, 200, send("a"))
	assert.Equal(t, 429, send("a"))
	// another site from the same address has its own bucket
	assert.Equal(t, 200, send("b"))
}

func TestRateLimit_FallsBackToIP(t *testing.T) {
	h := RateLimit(60, 1)(okHandler())

	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, 200, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, 429, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)

	other := httptest.NewRequest("POST", "/", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, 200, rr.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0, 0)(okHandler())
	for range 100 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
		require.Equal(t, 200, rr.Code)
	}
}

func TestLimiter_RefillAndEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(60, 1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("k"))
	assert.False(t, l.allow("k"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("k"), "one token per second at 60/min")

	now = now.Add(2 * time.Minute)
	l.allow("other")
	l.mu.Lock()
	_, kept := l.m["k"]
	l.mu.Unlock()
	assert.False(t, kept, "idle keys are evicted")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	assert.Equal(t, "9.9.9.9", clientIP(req))
}
