package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/weather"
)

type AppConfig struct {
	Port     string
	AppEnv   string
	LogLevel slog.Level

	// WeatherProvider is "openweather" or "openmeteo".
	WeatherProvider    string
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenMeteoBaseURL   string
	Units              weather.Units
	HTTPTimeout        time.Duration

	// StoreDriver is "memory" or "sqlite".
	StoreDriver string
	SQLitePath  string

	// PlacesProvider is "nominatim" or "google".
	PlacesProvider        string
	GoogleGeocodingAPIKey string
	NominatimBaseURL      string
	NominatimUserAgent    string
	SearchLimit           int
	SearchDebounce        time.Duration

	// Device is the configured device fix; nil when not set.
	Device                  *device.Coordinates
	LocationPermission      device.PermissionMode
	LocationServicesEnabled bool

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.WeatherProvider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openweather"))
	switch cfg.WeatherProvider {
	case "openweather", "openmeteo":
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q (allowed: openweather, openmeteo)", cfg.WeatherProvider)
	}
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.OpenMeteoBaseURL = os.Getenv("OPEN_METEO_BASE_URL")
	cfg.Units = weather.ParseUnits(getenvDefault("WEATHER_UNITS", string(weather.UnitsMetric)))

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", "sqlite"))
	switch cfg.StoreDriver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (allowed: memory, sqlite)", cfg.StoreDriver)
	}
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/preferences.db")

	cfg.PlacesProvider = strings.ToLower(getenvDefault("PLACES_PROVIDER", "nominatim"))
	switch cfg.PlacesProvider {
	case "nominatim", "google":
	default:
		return nil, fmt.Errorf("invalid PLACES_PROVIDER %q (allowed: nominatim, google)", cfg.PlacesProvider)
	}
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	if cfg.PlacesProvider == "google" && cfg.GoogleGeocodingAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEOCODING_API_KEY is required when PLACES_PROVIDER=google")
	}
	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "weather-lookup/1.0")
	cfg.SearchLimit = getenvInt("SEARCH_LIMIT", 5)
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", "300ms"); err != nil {
		return nil, err
	}

	if cfg.Device, err = loadDevice(); err != nil {
		return nil, err
	}
	cfg.LocationPermission = device.PermissionMode(strings.ToLower(getenvDefault("LOCATION_PERMISSION", string(device.PermissionGranted))))
	switch cfg.LocationPermission {
	case device.PermissionGranted, device.PermissionDenied, device.PermissionDeniedPermanently:
	default:
		return nil, fmt.Errorf("invalid LOCATION_PERMISSION %q", cfg.LocationPermission)
	}
	cfg.LocationServicesEnabled = getenvBool("LOCATION_SERVICES_ENABLED", true)

	if cfg.SessionIdleTimeout, err = getenvDuration("SESSION_IDLE_TIMEOUT", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "60s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.AppEnv == "dev"
}

func loadDevice() (*device.Coordinates, error) {
	latStr, lonStr := os.Getenv("DEVICE_LATITUDE"), os.Getenv("DEVICE_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid DEVICE_LATITUDE %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid DEVICE_LONGITUDE %q", lonStr)
	}
	return &device.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
