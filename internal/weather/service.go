package weather

import (
	"context"
	"log/slog"

	"github.com/i474232898/weather-lookup/internal/result"
)

// Service exposes the weather use cases as result streams.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger.With("component", "weather"),
	}
}

// Current streams the current conditions for a coordinate.
func (s *Service) Current(ctx context.Context, lat, lon float64) <-chan result.Result[WeatherData] {
	return result.Stream(ctx, func(ctx context.Context) (WeatherData, error) {
		data, err := s.repo.CurrentWeather(ctx, lat, lon)
		if err != nil {
			s.logger.Warn("current weather failed", "lat", lat, "lon", lon, "error", err)
			return WeatherData{}, err
		}
		return data, nil
	})
}

// FiveDayForecast streams the forecast for a coordinate, windowed to one sample per day.
func (s *Service) FiveDayForecast(ctx context.Context, lat, lon float64) <-chan result.Result[WeatherData] {
	return result.Stream(ctx, func(ctx context.Context) (WeatherData, error) {
		data, err := s.repo.FiveDayForecast(ctx, lat, lon)
		if err != nil {
			s.logger.Warn("forecast failed", "lat", lat, "lon", lon, "error", err)
			return WeatherData{}, err
		}
		windowed := WindowForecast(data.Forecast)
		s.logger.Debug("forecast windowed", "samples", len(data.Forecast), "days", len(windowed))
		return data.WithForecast(windowed), nil
	})
}
