package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "openweather", cfg.WeatherProvider)
	assert.Equal(t, weather.UnitsMetric, cfg.Units)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "nominatim", cfg.PlacesProvider)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Nil(t, cfg.Device)
	assert.Equal(t, device.PermissionGranted, cfg.LocationPermission)
	assert.True(t, cfg.LocationServicesEnabled)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEATHER_UNITS", "imperial")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WEATHER_PROVIDER", "OpenMeteo")
	t.Setenv("DEVICE_LATITUDE", "40.7128")
	t.Setenv("DEVICE_LONGITUDE", "-74.0060")
	t.Setenv("LOCATION_PERMISSION", "denied_permanently")
	t.Setenv("LOCATION_SERVICES_ENABLED", "false")
	t.Setenv("SEARCH_LIMIT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, weather.UnitsImperial, cfg.Units)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "openmeteo", cfg.WeatherProvider)
	require.NotNil(t, cfg.Device)
	assert.Equal(t, 40.7128, cfg.Device.Latitude)
	assert.Equal(t, device.PermissionDeniedPermanently, cfg.LocationPermission)
	assert.False(t, cfg.LocationServicesEnabled)
	assert.Equal(t, 8, cfg.SearchLimit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":           "loud",
		"STORE_DRIVER":        "redis",
		"WEATHER_PROVIDER":    "darksky",
		"PLACES_PROVIDER":     "bing",
		"HTTP_TIMEOUT":        "soon",
		"LOCATION_PERMISSION": "maybe",
		"DEVICE_LATITUDE":     "91",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if key == "DEVICE_LATITUDE" {
				t.Setenv("DEVICE_LONGITUDE", "0")
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("google without key", func(t *testing.T) {
		t.Setenv("PLACES_PROVIDER", "google")
		_, err := Load()
		assert.Error(t, err)
	})
}
