package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthMonitorCheck(t *testing.T) {
	m := NewHealthMonitor(zap.NewNop())
	m.Register("store", func(ctx context.Context) error { return nil })
	m.Register("redis", func(ctx context.Context) error { return errors.New("dial tcp: refused") })

	status := m.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, map[string]bool{"store": true, "redis": false}, status.Components)
	assert.Equal(t, status, m.Status())
}
