package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/config"
	"shoppa-backend/internal/shared/server/middleware"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	rg.GET("/catalog", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
}

func testRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config: config.Config{
			Env:             "dev",
			CORSAllowOrigin: []string{"http://localhost:3000"},
			RateLimitRPS:    rps,
			RateLimitBurst:  burst,
		},
		Handlers: []RouteRegistrar{pingHandler{}, nil},
		Limiter:  middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Guest-Id", "router-guest")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesHealthMetricsAndMe(t *testing.T) {
	r := testRouter(1, 1)

	for _, path := range []string{"/api/v1/health", "/api/v1/metrics", "/api/v1/me"} {
		for i := 0; i < 3; i++ {
			rec := serve(r, http.MethodGet, path)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", path, rec.Code)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Fatalf("%s: missing X-Request-Id", path)
			}
		}
	}

	rec := serve(r, http.MethodGet, "/api/v1/me")
	if !strings.Contains(rec.Body.String(), "guest:router-guest") {
		t.Fatalf("unexpected /me body: %s", rec.Body.String())
	}
}

func TestRouterLimitsGenerationRoutes(t *testing.T) {
	r := testRouter(1, 2)

	for i := 0; i < 2; i++ {
		if rec := serve(r, http.MethodPost, "/api/v1/recommendations"); rec.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, rec.Code)
		}
	}
	if rec := serve(r, http.MethodPost, "/api/v1/recommendations"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/api/v1/catalog"); rec.Code != http.StatusOK {
		t.Fatalf("catalog reads must not share the generation bucket, got %d", rec.Code)
	}
}

func TestRouterWithoutRateLimit(t *testing.T) {
	r := testRouter(0, 0)
	for i := 0; i < 20; i++ {
		if rec := serve(r, http.MethodPost, "/api/v1/recommendations"); rec.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
