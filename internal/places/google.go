package places

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Swapped in tests.
var (
	geocode        = geocoder.Geocoding
	reverseGeocode = geocoder.GeocodingReverse
)

// geocoder keeps the API key in a package global.
var keyMu sync.Mutex

// Google implements Finder over the Google Geocoding API. Forward geocoding yields a
// single prediction; details come from reverse geocoding its coordinates.
type Google struct {
	apiKey string
}

func NewGoogle(apiKey string) *Google {
	return &Google{apiKey: apiKey}
}

func (g *Google) Predict(ctx context.Context, query string) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := geocode(geocoder.Address{City: query})
	keyMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("google geocoding: %w", err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return []Prediction{}, nil
	}

	ref := strconv.FormatFloat(loc.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
	return []Prediction{{PlaceID: ref, Text: query, ref: ref}}, nil
}

func (g *Google) Details(ctx context.Context, p Prediction) (*weather.PlaceSearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	latStr, lonStr, ok := strings.Cut(p.ref, ",")
	if !ok {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, nil
	}

	keyMu.Lock()
	geocoder.ApiKey = g.apiKey
	addrs, err := reverseGeocode(geocoder.Location{Latitude: lat, Longitude: lon})
	keyMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("google reverse geocoding: %w", err)
	}

	place := &weather.PlaceSearchResult{
		PlaceID:   p.PlaceID,
		Name:      common.FirstNonEmpty(p.Text, "Unknown Place"),
		Address:   "Unknown Address",
		Latitude:  lat,
		Longitude: lon,
	}
	if len(addrs) > 0 {
		a := addrs[0]
		place.Name = common.FirstNonEmpty(a.City, a.District, a.County, p.Text, "Unknown Place")
		place.Address = common.FirstNonEmpty(a.FormattedAddress, "Unknown Address")
		place.Country = common.OptionalString(a.Country)
		place.State = common.OptionalString(a.State)
	}
	return place, nil
}
