package utils

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy    bool            `json:"healthy"`
	Components map[string]bool `json:"components"`
	CheckedAt  time.Time       `json:"checkedAt"`
}

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthMonitor periodically pings registered dependencies and keeps the latest snapshot.
type HealthMonitor struct {
	logger *zap.Logger

	mu      sync.RWMutex
	checks  map[string]HealthCheck
	current HealthStatus
}

func NewHealthMonitor(logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		logger: logger,
		checks: make(map[string]HealthCheck),
	}
}

// Register adds a named dependency check.
func (m *HealthMonitor) Register(name string, check HealthCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check runs every registered check once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	m.mu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.RUnlock()
	sort.Strings(names)

	status := HealthStatus{Healthy: true, Components: make(map[string]bool, len(names)), CheckedAt: time.Now()}
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := checks[name](pingCtx)
		cancel()
		status.Components[name] = err == nil
		if err != nil {
			status.Healthy = false
			m.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start checks immediately, then on every tick until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
