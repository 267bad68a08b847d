package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultOpenMeteoURL is the Open-Meteo forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const (
	openMeteoCurrentVars = "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,weather_code,surface_pressure,wind_speed_10m,visibility"
	openMeteoHourlyVars  = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,is_day"
	// OpenWeatherMap forecasts in 3 hour steps; hourly samples are thinned to match.
	openMeteoStepHours = 3
	openMeteoDays      = 6
)

// OpenMeteo implements weather.Repository for Open-Meteo. It needs no API key
// and returns no place names, so Location carries only coordinates.
type OpenMeteo struct {
	baseURL  string
	units    weather.Units
	httpCfg  HTTPClientConfig
	current  *gobreaker.CircuitBreaker
	forecast *gobreaker.CircuitBreaker
}

func NewOpenMeteo(cfg HTTPClientConfig, baseURL string, units weather.Units) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteo{
		baseURL:  strings.TrimRight(baseURL, "/"),
		units:    units,
		httpCfg:  cfg,
		current:  newBreaker("openmeteo-current", cfg),
		forecast: newBreaker("openmeteo-forecast", cfg),
	}
}

type omCurrent struct {
	Time                int64   `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	RelativeHumidity    float64 `json:"relative_humidity_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	IsDay               int     `json:"is_day"`
	WeatherCode         int     `json:"weather_code"`
	SurfacePressure     float64 `json:"surface_pressure"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	Visibility          float64 `json:"visibility"`
}

type omHourly struct {
	Time             []int64   `json:"time"`
	Temperature      []float64 `json:"temperature_2m"`
	RelativeHumidity []float64 `json:"relative_humidity_2m"`
	WeatherCode      []int     `json:"weather_code"`
	WindSpeed        []float64 `json:"wind_speed_10m"`
	IsDay            []int     `json:"is_day"`
}

type omResponse struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Current   omCurrent `json:"current"`
	Hourly    omHourly  `json:"hourly"`
}

func (p *OpenMeteo) endpoint(lat, lon float64, extra url.Values) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("timeformat", "unixtime")
	values.Set("timezone", "UTC")
	if p.units == weather.UnitsImperial {
		values.Set("temperature_unit", "fahrenheit")
		values.Set("wind_speed_unit", "mph")
	} else {
		values.Set("wind_speed_unit", "ms")
	}
	for k, v := range extra {
		values[k] = v
	}
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenMeteo) CurrentWeather(ctx context.Context, lat, lon float64) (weather.WeatherData, error) {
	var payload omResponse
	u := p.endpoint(lat, lon, url.Values{"current": {openMeteoCurrentVars}})
	if err := fetchJSON(ctx, p.httpCfg, p.current, u, apperror.KindWeatherLoadFailed, &payload); err != nil {
		return weather.WeatherData{}, err
	}
	c := payload.Current
	return weather.WeatherData{
		Location: payload.location(),
		Current: weather.CurrentWeather{
			Temperature: p.temperature(c.Temperature),
			Description: wmoDescription(c.WeatherCode),
			IconCode:    wmoIcon(c.WeatherCode, c.IsDay == 1),
			Humidity:    int(c.RelativeHumidity),
			WindSpeed:   c.WindSpeed,
			FeelsLike:   p.temperature(c.ApparentTemperature),
			Pressure:    c.SurfacePressure,
			Visibility:  c.Visibility,
			LastUpdated: c.Time * 1000,
		},
		Forecast: []weather.WeatherForecast{},
	}, nil
}

func (p *OpenMeteo) FiveDayForecast(ctx context.Context, lat, lon float64) (weather.WeatherData, error) {
	var payload omResponse
	u := p.endpoint(lat, lon, url.Values{
		"hourly":        {openMeteoHourlyVars},
		"forecast_days": {strconv.Itoa(openMeteoDays)},
	})
	if err := fetchJSON(ctx, p.httpCfg, p.forecast, u, apperror.KindForecastLoadFailed, &payload); err != nil {
		return weather.WeatherData{}, err
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.RelativeHumidity) != n || len(h.WeatherCode) != n || len(h.WindSpeed) != n || len(h.IsDay) != n {
		return weather.WeatherData{}, apperror.Wrap(apperror.KindForecastLoadFailed, fmt.Errorf("hourly series have mismatched lengths"))
	}

	data := weather.WeatherData{
		Location: payload.location(),
		Forecast: make([]weather.WeatherForecast, 0, n/openMeteoStepHours+1),
	}
	for i := 0; i < n; i++ {
		ts := time.Unix(h.Time[i], 0).UTC()
		if ts.Hour()%openMeteoStepHours != 0 {
			continue
		}
		temp := p.temperature(h.Temperature[i])
		if len(data.Forecast) == 0 {
			data.Current = weather.CurrentWeather{
				Temperature: temp,
				Description: wmoDescription(h.WeatherCode[i]),
				IconCode:    wmoIcon(h.WeatherCode[i], h.IsDay[i] == 1),
				Humidity:    int(h.RelativeHumidity[i]),
				WindSpeed:   h.WindSpeed[i],
				FeelsLike:   temp,
				LastUpdated: ts.UnixMilli(),
			}
		}
		data.Forecast = append(data.Forecast, weather.WeatherForecast{
			Date:        ts.Format(weather.ForecastDateLayout),
			MaxTemp:     temp,
			MinTemp:     temp,
			Description: wmoDescription(h.WeatherCode[i]),
			IconCode:    wmoIcon(h.WeatherCode[i], h.IsDay[i] == 1),
			Humidity:    int(h.RelativeHumidity[i]),
			WindSpeed:   h.WindSpeed[i],
		})
	}
	return data, nil
}

// temperature converts Celsius to Kelvin for the standard unit system, which Open-Meteo lacks.
func (p *OpenMeteo) temperature(v float64) float64 {
	if p.units == weather.UnitsStandard {
		return v + 273.15
	}
	return v
}

func (r omResponse) location() weather.SavedLocation {
	return weather.SavedLocation{
		ID:        fmt.Sprintf("%.4f,%.4f", r.Latitude, r.Longitude),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// wmoDescription maps WMO weather interpretation codes to short descriptions.
func wmoDescription(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code == 1:
		return "mainly clear"
	case code == 2:
		return "partly cloudy"
	case code == 3:
		return "overcast clouds"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}

// wmoIcon picks the OpenWeatherMap icon code closest to a WMO code.
func wmoIcon(code int, day bool) string {
	var base string
	switch {
	case code == 0:
		base = "01"
	case code == 1 || code == 2:
		base = "02"
	case code == 3:
		base = "04"
	case code == 45 || code == 48:
		base = "50"
	case code >= 51 && code <= 57, code >= 80 && code <= 82:
		base = "09"
	case code >= 61 && code <= 67:
		base = "10"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		base = "13"
	case code >= 95:
		base = "11"
	default:
		base = "03"
	}
	if day {
		return base + "d"
	}
	return base + "n"
}
