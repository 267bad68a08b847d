package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeather implements weather.Repository for OpenWeatherMap.
type OpenWeather struct {
	apiKey   string
	baseURL  string
	units    weather.Units
	httpCfg  HTTPClientConfig
	current  *gobreaker.CircuitBreaker
	forecast *gobreaker.CircuitBreaker
}

func NewOpenWeather(cfg HTTPClientConfig, baseURL, apiKey string, units weather.Units) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeather{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		units:    units,
		httpCfg:  cfg,
		current:  newBreaker("openweather-current", cfg),
		forecast: newBreaker("openweather-forecast", cfg),
	}
}

type owCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type owCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type owWind struct {
	Speed float64 `json:"speed"`
}

type currentResponse struct {
	Coord      owCoord       `json:"coord"`
	Weather    []owCondition `json:"weather"`
	Main       owMain        `json:"main"`
	Visibility float64       `json:"visibility"`
	Wind       owWind        `json:"wind"`
	Dt         int64         `json:"dt"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type forecastItem struct {
	Dt         int64         `json:"dt"`
	Main       owMain        `json:"main"`
	Weather    []owCondition `json:"weather"`
	Wind       owWind        `json:"wind"`
	Visibility float64       `json:"visibility"`
	DtTxt      string        `json:"dt_txt"`
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
	City struct {
		ID      int64   `json:"id"`
		Name    string  `json:"name"`
		Coord   owCoord `json:"coord"`
		Country string  `json:"country"`
	} `json:"city"`
}

func (p *OpenWeather) endpoint(path string, lat, lon float64) string {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("units", string(p.units))
	if p.apiKey != "" {
		values.Set("appid", p.apiKey)
	}
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, values.Encode())
}

func (p *OpenWeather) CurrentWeather(ctx context.Context, lat, lon float64) (weather.WeatherData, error) {
	var payload currentResponse
	if err := fetchJSON(ctx, p.httpCfg, p.current, p.endpoint("weather", lat, lon), apperror.KindWeatherLoadFailed, &payload); err != nil {
		return weather.WeatherData{}, err
	}
	return payload.toWeatherData(), nil
}

func (p *OpenWeather) FiveDayForecast(ctx context.Context, lat, lon float64) (weather.WeatherData, error) {
	var payload forecastResponse
	if err := fetchJSON(ctx, p.httpCfg, p.forecast, p.endpoint("forecast", lat, lon), apperror.KindForecastLoadFailed, &payload); err != nil {
		return weather.WeatherData{}, err
	}
	return payload.toWeatherData(), nil
}

func firstCondition(items []owCondition) owCondition {
	if len(items) == 0 {
		return owCondition{}
	}
	return items[0]
}

func (r currentResponse) toWeatherData() weather.WeatherData {
	cond := firstCondition(r.Weather)
	return weather.WeatherData{
		Location: weather.SavedLocation{
			ID:        strconv.FormatInt(r.ID, 10),
			Name:      r.Name,
			Latitude:  r.Coord.Lat,
			Longitude: r.Coord.Lon,
			Country:   common.OptionalString(r.Sys.Country),
		},
		Current: weather.CurrentWeather{
			Temperature: r.Main.Temp,
			Description: cond.Description,
			IconCode:    cond.Icon,
			Humidity:    r.Main.Humidity,
			WindSpeed:   r.Wind.Speed,
			FeelsLike:   r.Main.FeelsLike,
			Pressure:    r.Main.Pressure,
			Visibility:  r.Visibility,
			UVIndex:     0,
			LastUpdated: r.Dt * 1000,
		},
		Forecast: []weather.WeatherForecast{},
	}
}

func (i forecastItem) toCurrentWeather() weather.CurrentWeather {
	cond := firstCondition(i.Weather)
	return weather.CurrentWeather{
		Temperature: i.Main.Temp,
		Description: cond.Description,
		IconCode:    cond.Icon,
		Humidity:    i.Main.Humidity,
		WindSpeed:   i.Wind.Speed,
		FeelsLike:   i.Main.FeelsLike,
		Pressure:    i.Main.Pressure,
		Visibility:  i.Visibility,
		UVIndex:     0, // not available in the forecast API
		LastUpdated: i.Dt * 1000,
	}
}

func (i forecastItem) toWeatherForecast() weather.WeatherForecast {
	cond := firstCondition(i.Weather)
	return weather.WeatherForecast{
		Date:        i.DtTxt,
		MaxTemp:     i.Main.TempMax,
		MinTemp:     i.Main.TempMin,
		Description: cond.Description,
		IconCode:    cond.Icon,
		Humidity:    i.Main.Humidity,
		WindSpeed:   i.Wind.Speed,
	}
}

func (r forecastResponse) toWeatherData() weather.WeatherData {
	data := weather.WeatherData{
		Location: weather.SavedLocation{
			ID:        strconv.FormatInt(r.City.ID, 10),
			Name:      r.City.Name,
			Latitude:  r.City.Coord.Lat,
			Longitude: r.City.Coord.Lon,
			Country:   common.OptionalString(r.City.Country),
		},
		Forecast: make([]weather.WeatherForecast, 0, len(r.List)),
	}
	if len(r.List) > 0 {
		data.Current = r.List[0].toCurrentWeather()
	}
	for _, item := range r.List {
		data.Forecast = append(data.Forecast, item.toWeatherForecast())
	}
	return data
}
