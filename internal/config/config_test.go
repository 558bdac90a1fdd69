package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 11546, cfg.HTTPPort)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, "travel-memories", cfg.StorageKey)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderURL)
	assert.Equal(t, 1, cfg.GeocoderMaxAttempts)
	assert.Equal(t, 10, cfg.CameraZoom)
	assert.Equal(t, 300*time.Millisecond, cfg.MarkerAck())
	assert.False(t, cfg.DemoPlaceholders)
	assert.Equal(t, ":11546", cfg.GetHTTPAddr())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("TRAVELMAP_STORAGE_DRIVER", "sqlite")
	t.Setenv("TRAVELMAP_HTTP_PORT", "9000")
	t.Setenv("TRAVELMAP_GEOCODER_MAX_ATTEMPTS", "3")
	t.Setenv("TRAVELMAP_DEMO_PLACEHOLDERS", "true")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 3, cfg.GeocoderMaxAttempts)
	assert.True(t, cfg.DemoPlaceholders)
}

func TestResolveDefaults_RejectsUnknownDriver(t *testing.T) {
	cfg := NewForTesting()
	cfg.StorageDriver = "indexeddb"
	assert.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_Normalizes(t *testing.T) {
	cfg := NewForTesting()
	cfg.StorageDriver = "auto"
	cfg.GeocoderMaxAttempts = 0
	cfg.CameraZoom = -1
	cfg.MarkerAckMillis = -5

	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, 1, cfg.GeocoderMaxAttempts)
	assert.Equal(t, 10, cfg.CameraZoom)
	assert.Equal(t, time.Duration(0), cfg.MarkerAck())
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "memory", cfg.StorageDriver)
}
