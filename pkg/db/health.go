package db

import (
	"context"
	"fmt"
	"time"
)

// Pinger is anything that can report reachability, such as *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health state of a catalog backend.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency_ns"`
	Error   string        `json:"error,omitempty"`
}

// Check pings p and reports its latency. A nil Pinger reports healthy, which
// is the case for the in-memory catalog.
func Check(ctx context.Context, p Pinger) *HealthStatus {
	status := &HealthStatus{}
	if p == nil {
		status.Healthy = true
		return status
	}

	start := time.Now()
	err := p.Ping(ctx)
	status.Latency = time.Since(start)

	if err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status
	}
	status.Healthy = true
	return status
}

// WaitForReady polls p until it becomes available or ctx is cancelled.
func WaitForReady(ctx context.Context, p Pinger, pollInterval time.Duration) error {
	if p == nil {
		return fmt.Errorf("pinger is nil")
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	if err := p.Ping(ctx); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
