package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/tweetpulse/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Pinger is satisfied by the checkpoint stores and the work queue.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger into a HealthCheck.
func PingCheck(name string, p Pinger) HealthCheck {
	return HealthCheck{Name: name, Check: p.Ping}
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupProbeTimeout)
	defer cancel()

	return s.runHealthChecks(c, ctx)
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()

	response := map[string]any{
		"status":    "ok",
		"uptime":    uptime,
		"worker_id": s.workerID,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}

	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.runHealthChecks(c, ctx)
}

// runHealthChecks probes every dependency and reports each result; the first
// failure in registration order is named in failed_check.
func (s *Server) runHealthChecks(c echo.Context, ctx context.Context) error {
	status := http.StatusOK
	response := map[string]any{"status": "ready"}
	results := make(map[string]string, len(s.healthChecks))

	for _, hc := range s.healthChecks {
		err := hc.Check(ctx)
		if err == nil {
			results[hc.Name] = "ok"
			continue
		}

		results[hc.Name] = err.Error()
		if status == http.StatusOK {
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
			response["failed_check"] = hc.Name
			response["error"] = err.Error()
		}
	}
	if len(results) > 0 {
		response["checks"] = results
	}

	if err := c.JSON(status, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
