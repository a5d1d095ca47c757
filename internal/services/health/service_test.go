package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatus(t *testing.T) {
	svc := NewService(map[string]Check{
		"catalog":  func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
		"redis":    nil,
	})

	checks, ready := svc.Status(context.Background())
	if ready {
		t.Fatalf("expected not ready")
	}
	if len(checks) != 2 || checks["catalog"] != "ok" || checks["postgres"] != "connection refused" {
		t.Fatalf("unexpected checks: %v", checks)
	}
}

func TestReadyRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		check  Check
		status int
	}{
		{name: "healthy", check: func(context.Context) error { return nil }, status: http.StatusOK},
		{name: "failing", check: func(context.Context) error { return errors.New("down") }, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewService(map[string]Check{"dep": tc.check}).RegisterRoutes(r.Group("/api/v1"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
