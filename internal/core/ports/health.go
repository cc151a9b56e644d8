package ports

import "context"

// HealthChecker checks external dependency health. The engine's deep health
// endpoint pings each registered checker.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}
