package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/places"
	"github.com/i474232898/weather-lookup/internal/reducer"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/screens/managelocations"
	"github.com/i474232898/weather-lookup/internal/screens/placesearch"
	"github.com/i474232898/weather-lookup/internal/screens/weatherdetails"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

// components is the assembled object graph shared by all commands.
type components struct {
	cfg    *config.AppConfig
	logger *slog.Logger

	weather   *weather.Service
	locations *location.Service
	places    *places.Repository
	device    *device.Static
	perms     *device.StaticPermissions

	closers []io.Closer
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Warn("close failed", "error", err)
		}
	}
}

func build(cfg *config.AppConfig, logger *slog.Logger) (*components, error) {
	c := &components{cfg: cfg, logger: logger}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var prefs store.Preferences
	switch cfg.StoreDriver {
	case "memory":
		prefs = store.NewMemoryStore()
	default:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open preferences: %w", err)
		}
		c.closers = append(c.closers, db)
		prefs = db
	}

	httpCfg := providers.HTTPClientConfig{
		Client:          httpClient,
		BreakerTimeout:  30 * time.Second,
		BreakerFailures: 5,
	}
	var repo weather.Repository
	switch cfg.WeatherProvider {
	case "openmeteo":
		repo = providers.NewOpenMeteo(httpCfg, cfg.OpenMeteoBaseURL, cfg.Units)
	default:
		repo = providers.NewOpenWeather(httpCfg, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, cfg.Units)
	}
	c.weather = weather.NewService(repo, logger)

	c.device = device.NewStatic(cfg.Device)
	c.perms = device.NewStaticPermissions(cfg.LocationPermission, cfg.LocationServicesEnabled)
	c.locations = location.NewService(location.NewPreferencesSource(prefs, logger), c.device, c.perms, logger)

	var finder places.Finder
	switch cfg.PlacesProvider {
	case "google":
		finder = places.NewGoogle(cfg.GoogleGeocodingAPIKey)
	default:
		finder = places.NewNominatim(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.SearchLimit, httpClient)
	}
	c.places = places.NewRepository(finder, logger)

	return c, nil
}

// registry hosts the three screens for HTTP sessions.
func (c *components) registry(ctx context.Context) *screens.Registry {
	opt := reducer.WithLogger(c.logger)
	return screens.NewRegistry(ctx, map[string]screens.Factory{
		weatherdetails.Name:  weatherdetails.Factory(c.weather, c.locations, opt),
		managelocations.Name: managelocations.Factory(c.locations, c.weather, opt),
		placesearch.Name:     placesearch.Factory(c.places, c.locations, c.cfg.SearchDebounce, opt),
	}, c.logger)
}

func (c *components) services(reg *screens.Registry) httpapi.Services {
	return httpapi.Services{
		Weather:     c.weather,
		Locations:   c.locations,
		Places:      c.places,
		Device:      c.device,
		Permissions: c.perms,
		Screens:     reg,
	}
}
