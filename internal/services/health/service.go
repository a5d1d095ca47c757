// Package health reports whether the service's backing dependencies answer.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"shoppa-backend/internal/shared/server/respond"
)

const defaultCheckTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Service runs named readiness checks concurrently.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a readiness service. Nil checks are skipped.
func NewService(checks map[string]Check) *Service {
	s := &Service{checks: make(map[string]Check), timeout: defaultCheckTimeout}
	for name, c := range checks {
		if c != nil {
			s.checks[name] = c
		}
	}
	return s
}

// Status runs every check and returns "ok" or the error text per dependency.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	out := make(map[string]string, len(s.checks))
	ready := true
	for name, check := range s.checks {
		g.Go(func() error {
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			out[name] = status
			if status != "ok" {
				ready = false
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, ready
}

// RegisterRoutes attaches GET /ready.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ready", func(c *gin.Context) {
		checks, ready := s.Status(c.Request.Context())
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ready": ready, "checks": checks})
	})
}
