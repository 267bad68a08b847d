package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type countingRepo struct {
	current  atomic.Int32
	forecast atomic.Int32
}

func (r *countingRepo) CurrentWeather(_ context.Context, lat, lon float64) (weather.WeatherData, error) {
	r.current.Add(1)
	return weather.WeatherData{
		Location: weather.SavedLocation{ID: "here", Latitude: lat, Longitude: lon},
		Current:  weather.CurrentWeather{Temperature: 21},
	}, nil
}

func (r *countingRepo) FiveDayForecast(_ context.Context, lat, lon float64) (weather.WeatherData, error) {
	r.forecast.Add(1)
	return weather.WeatherData{
		Location: weather.SavedLocation{ID: "here", Latitude: lat, Longitude: lon},
		Forecast: []weather.WeatherForecast{{Date: "2024-01-01 12:00:00"}},
	}, nil
}

func runForecast(t *testing.T, repo *countingRepo, args ...string) weather.WeatherData {
	t.Helper()
	c := &components{weather: weather.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))}
	cmd := newForecastCmd(func() *components { return c })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var data weather.WeatherData
	require.NoError(t, json.Unmarshal(out.Bytes(), &data))
	return data
}

func TestForecastCurrentFetchesOnlyCurrent(t *testing.T) {
	repo := &countingRepo{}
	data := runForecast(t, repo, "--lat", "1", "--lon", "2", "--current")

	assert.Equal(t, 21.0, data.Current.Temperature)
	assert.Equal(t, int32(1), repo.current.Load())
	assert.Never(t, func() bool { return repo.forecast.Load() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestForecastFetchesOnlyForecast(t *testing.T) {
	repo := &countingRepo{}
	data := runForecast(t, repo, "--lat", "1", "--lon", "2")

	assert.Len(t, data.Forecast, 1)
	assert.Equal(t, int32(1), repo.forecast.Load())
	assert.Never(t, func() bool { return repo.current.Load() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestForecastRejectsOutOfRangeCoordinates(t *testing.T) {
	cmd := newForecastCmd(func() *components { return nil })
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--lat", "91", "--lon", "0"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "coordinates out of range")
}
