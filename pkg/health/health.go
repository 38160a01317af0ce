// Package health runs periodic component checks and reports them over HTTP.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/resilience"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component is the last result of one check
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one component
type Check func(ctx context.Context) (Status, string, error)

type registered struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	mu         sync.RWMutex
	checks     map[string]registered
	components map[string]*Component
	timeout    time.Duration
	started    time.Time
	version    string
	log        *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, version string) *Checker {
	return &Checker{
		checks:     make(map[string]registered),
		components: make(map[string]*Component),
		timeout:    5 * time.Second,
		started:    time.Now(),
		version:    version,
		log:        log.WithComponent("health"),
	}
}

// RegisterCheck adds a check. A critical component that is down makes the system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = registered{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RegisterStorageCheck registers the profile store as a critical component
func (c *Checker) RegisterStorageCheck(backend string, ping func(ctx context.Context) error) {
	c.RegisterCheck("storage", true, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, backend + " store unreachable", err
		}
		return StatusUp, backend + " store reachable", nil
	})
}

// RegisterBreakerCheck reports an upstream as degraded while its breaker is not closed
func (c *Checker) RegisterBreakerCheck(name string, cb *resilience.CircuitBreaker) {
	c.RegisterCheck(name, false, func(context.Context) (Status, string, error) {
		switch state := cb.State(); state {
		case resilience.StateClosed:
			return StatusUp, "circuit closed", nil
		default:
			return StatusDegraded, "circuit " + string(state), nil
		}
	})
}

// RunChecks executes all registered checks once. Checks run without holding the lock.
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make(map[string]registered, len(c.checks))
	for name, r := range c.checks {
		checks[name] = r
	}
	c.mu.RUnlock()

	for name, r := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := r.check(checkCtx)
		cancel()

		component := &Component{
			Name:        name,
			Status:      status,
			Critical:    r.critical,
			Description: description,
			LastChecked: time.Now(),
		}
		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		}

		c.mu.Lock()
		c.components[name] = component
		c.mu.Unlock()
	}
}

// Start runs the checks now and then every period until ctx is done
func (c *Checker) Start(ctx context.Context, period time.Duration) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.RunChecks(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// GetStatus returns a copy of every component's last result
func (c *Checker) GetStatus() map[string]Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Component, len(c.components))
	for k, v := range c.components {
		result[k] = *v
	}
	return result
}

// IsSystemHealthy returns false when any critical component is down
func (c *Checker) IsSystemHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}
	return true
}

// Handler serves the health report; unhealthy systems answer 503
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		code, status := http.StatusOK, "ok"
		if !c.IsSystemHealthy() {
			code, status = http.StatusServiceUnavailable, "unhealthy"
		}
		ctx.JSON(code, gin.H{
			"status":     status,
			"version":    c.version,
			"uptime":     time.Since(c.started).Round(time.Second).String(),
			"timestamp":  time.Now().Format(time.RFC3339),
			"components": c.GetStatus(),
		})
	}
}
