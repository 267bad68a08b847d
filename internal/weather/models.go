package weather

import (
	"time"
)

// Units selects the unit system requested from the weather API.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
	UnitsStandard Units = "standard"
)

// ParseUnits returns the Units for s, defaulting to metric.
func ParseUnits(s string) Units {
	switch Units(s) {
	case UnitsImperial, UnitsStandard:
		return Units(s)
	default:
		return UnitsMetric
	}
}

// SavedLocation is a user-curated or device-detected place.
// ID is unique among saved locations.
type SavedLocation struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Country           *string `json:"country,omitempty"`
	State             *string `json:"state,omitempty"`
	IsCurrentLocation bool    `json:"isCurrentLocation"`
	AddedAt           int64   `json:"addedAt"` // epoch millis
}

// NewSavedLocation stamps AddedAt with the current time.
func NewSavedLocation(id, name string, lat, lon float64) SavedLocation {
	return SavedLocation{
		ID:        id,
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		AddedAt:   time.Now().UnixMilli(),
	}
}

// SameCoordinates reports whether l and o sit on exactly the same point.
func (l SavedLocation) SameCoordinates(o SavedLocation) bool {
	return l.Latitude == o.Latitude && l.Longitude == o.Longitude
}

// CurrentWeather is one observation. UVIndex is not supplied by the upstream API and is always 0.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	IconCode    string  `json:"iconCode"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	FeelsLike   float64 `json:"feelsLike"`
	Pressure    float64 `json:"pressure"`
	Visibility  float64 `json:"visibility"`
	UVIndex     float64 `json:"uvIndex"`
	LastUpdated int64   `json:"lastUpdated"` // epoch millis
}

// WeatherForecast is one forecast sample. Date is formatted "YYYY-MM-DD HH:MM:SS".
type WeatherForecast struct {
	Date        string  `json:"date"`
	MaxTemp     float64 `json:"maxTemp"`
	MinTemp     float64 `json:"minTemp"`
	Description string  `json:"description"`
	IconCode    string  `json:"iconCode"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
}

// WeatherData aggregates a location, its current conditions and an ordered forecast.
type WeatherData struct {
	Location SavedLocation     `json:"location"`
	Current  CurrentWeather    `json:"currentWeather"`
	Forecast []WeatherForecast `json:"forecast"`
}

// WithForecast returns a copy of d with its forecast replaced.
func (d WeatherData) WithForecast(f []WeatherForecast) WeatherData {
	d.Forecast = f
	return d
}

// PlaceSearchResult is a place resolved by the place search collaborator.
type PlaceSearchResult struct {
	PlaceID   string  `json:"placeId"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   *string `json:"country,omitempty"`
	State     *string `json:"state,omitempty"`
}

// ToSavedLocation converts a search hit into a saved (non-current) location.
func (p PlaceSearchResult) ToSavedLocation() SavedLocation {
	loc := NewSavedLocation(p.PlaceID, p.Name, p.Latitude, p.Longitude)
	loc.Country = p.Country
	loc.State = p.State
	return loc
}
