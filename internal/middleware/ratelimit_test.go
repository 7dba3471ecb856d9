package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// newLimitedEcho wires a single POST route behind the rate limiter,
// backed by an in-process miniredis.
func newLimitedEcho(t *testing.T, maxRequests int, window time.Duration) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimit(rdb, maxRequests, window))

	return e, mr
}

// doPost fires one request from the given client IP and returns the status.
func doPost(e *echo.Echo, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-Ip", ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_UnderLimit(t *testing.T) {
	e, _ := newLimitedEcho(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := doPost(e, "10.0.0.1"); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, code)
		}
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	e, _ := newLimitedEcho(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		doPost(e, "10.0.0.1")
	}
	if code := doPost(e, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit exceeded, got %d", code)
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	e, _ := newLimitedEcho(t, 1, time.Minute)

	if code := doPost(e, "10.0.0.1"); code != http.StatusNoContent {
		t.Fatalf("first IP: expected 204, got %d", code)
	}
	if code := doPost(e, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("first IP second request: expected 429, got %d", code)
	}

	// A different IP gets its own window.
	if code := doPost(e, "10.0.0.2"); code != http.StatusNoContent {
		t.Errorf("second IP: expected 204, got %d", code)
	}
}

func TestRateLimit_WindowExpires(t *testing.T) {
	e, mr := newLimitedEcho(t, 1, time.Minute)

	doPost(e, "10.0.0.1")
	if code := doPost(e, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside window, got %d", code)
	}

	// Advance miniredis' clock past the window so the counter expires.
	mr.FastForward(2 * time.Minute)

	if code := doPost(e, "10.0.0.1"); code != http.StatusNoContent {
		t.Errorf("expected 204 after window expiry, got %d", code)
	}
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimit(rdb, 1, time.Minute))

	// Kill the backing Redis. Requests should still pass.
	mr.Close()

	if code := doPost(e, "10.0.0.1"); code != http.StatusNoContent {
		t.Errorf("expected fail-open 204 with Redis down, got %d", code)
	}
	if code := doPost(e, "10.0.0.1"); code != http.StatusNoContent {
		t.Errorf("expected fail-open 204 with Redis down, got %d", code)
	}
}
