package weather

import (
	"context"
)

// Repository abstracts the upstream weather API (e.g. OpenWeatherMap).
// Implementations return *apperror.AppError for expected failures.
type Repository interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (WeatherData, error)
	FiveDayForecast(ctx context.Context, lat, lon float64) (WeatherData, error)
}
