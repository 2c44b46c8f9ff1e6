// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultCheckTimeout = 2 * time.Second

// Check is one dependency probed by /ready.
type Check struct {
	Name    string
	Timeout time.Duration
	Probe   func(ctx context.Context) error
}

// DatabaseCheck pings the database behind a gorm connection.
func DatabaseCheck(db *gorm.DB) Check {
	return Check{
		Name: "database",
		Probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// RedisCheck pings the snapshot store.
func RedisCheck(client redis.UniversalClient) Check {
	return Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// Handler serves /health and /ready.
type Handler struct {
	service string
	checks  []Check
	started time.Time
}

// NewHandler creates a Handler for the named service.
func NewHandler(service string, checks ...Check) *Handler {
	return &Handler{service: service, checks: checks, started: time.Now()}
}

// RegisterRoutes mounts the probes at the root of the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health reports that the process is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready runs every check concurrently and answers 503 if any fails.
func (h *Handler) Ready(c *gin.Context) {
	results := make(map[string]string, len(h.checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
		ok = true
	)
	for _, chk := range h.checks {
		wg.Add(1)
		go func(chk Check) {
			defer wg.Done()
			timeout := chk.Timeout
			if timeout <= 0 {
				timeout = defaultCheckTimeout
			}
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()

			status := "ok"
			if err := chk.Probe(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[chk.Name] = status
			if status != "ok" {
				ok = false
			}
		}(chk)
	}
	wg.Wait()

	code, status := http.StatusOK, "ready"
	if !ok {
		code, status = http.StatusServiceUnavailable, "unavailable"
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": h.service,
		"checks":  results,
	})
}
