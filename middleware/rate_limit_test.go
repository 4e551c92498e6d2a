package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
)

func buildLimitedApp(t *testing.T, rdb *redis.Client, limit int64) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(RateLimitMiddleware(rdb, RateLimitConfig{
		Scope:  "test",
		Limit:  limit,
		Window: time.Minute,
	}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimitEnforced(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := buildLimitedApp(t, rdb, 3)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200 inside limit, got %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("over-limit request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("expected 429 over limit, got %d", resp.StatusCode)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := buildLimitedApp(t, rdb, 1)

	if resp, _ := app.Test(httptest.NewRequest("GET", "/ping", nil)); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first request should pass, got %d", resp.StatusCode)
	}
	if resp, _ := app.Test(httptest.NewRequest("GET", "/ping", nil)); resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", resp.StatusCode)
	}

	// Advance past the window; counter key expires and the client is clean again.
	mr.FastForward(2 * time.Minute)

	if resp, _ := app.Test(httptest.NewRequest("GET", "/ping", nil)); resp.StatusCode != fiber.StatusOK {
		t.Errorf("request after window should pass, got %d", resp.StatusCode)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := buildLimitedApp(t, nil, 1)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("limiter must fail open with no backend, got %d", resp.StatusCode)
		}
	}
}
