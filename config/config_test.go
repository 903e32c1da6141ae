package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DEV_AUTH_BYPASS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 21, cfg.PickerWindowDays)
	assert.Equal(t, 14, cfg.DirectoryWindowDays)
	assert.Equal(t, RejectDelete, cfg.RejectPolicy)
	assert.Equal(t, 2*time.Minute, cfg.WindowCacheTTL)
	assert.True(t, cfg.DevAuthBypass)
	assert.False(t, cfg.NeedsFirebase())
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: StoreMemory, RejectPolicy: RejectCancel, PickerWindowDays: 21, DirectoryWindowDays: 14}
	require.NoError(t, base.Validate())

	bad := base
	bad.StoreDriver = "postgres"
	assert.Error(t, bad.Validate())

	bad = base
	bad.RejectPolicy = "archive"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())
}
