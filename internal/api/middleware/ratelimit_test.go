package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.001, 2)
	handler := RateLimit(rl)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	for i := 0; i < 2; i++ {
		if err := call("10.0.0.1"); err != nil {
			t.Fatalf("request %d should pass: %v", i, err)
		}
	}

	err := call("10.0.0.1")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}

	if err := call("10.0.0.2"); err != nil {
		t.Fatalf("other client should have its own bucket: %v", err)
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.get("10.0.0.1")

	rl.evict(time.Now().Add(staleAfter + time.Second))

	if len(rl.clients) != 0 {
		t.Fatalf("expected idle client evicted, %d left", len(rl.clients))
	}
}
