package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

const (
	nominatimBreakerFailures = 5
	nominatimBreakerTimeout  = 30 * time.Second
)

// Nominatim implements Finder over the OpenStreetMap Nominatim API.
type Nominatim struct {
	BaseURL    string
	UserAgent  string
	Limit      int
	HTTPClient *http.Client

	breaker *gobreaker.CircuitBreaker
}

// NewNominatim creates a Nominatim finder with defaults for empty arguments.
func NewNominatim(baseURL, userAgent string, limit int, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "weather-lookup/1.0"
	}
	if limit <= 0 {
		limit = 5
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Nominatim{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  userAgent,
		Limit:      limit,
		HTTPClient: client,
		breaker:    newNominatimBreaker(),
	}
}

// nominatimStatusError is a non-200 answer passed back through the breaker.
type nominatimStatusError struct {
	status int
	text   string
}

func (e *nominatimStatusError) Error() string {
	return fmt.Sprintf("nominatim error: %d %s", e.status, e.text)
}

func newNominatimBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     nominatimBreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= nominatimBreakerFailures
		},
		// Only 5xx, 429 and transport failures count against the upstream.
		IsSuccessful: func(err error) bool {
			var se *nominatimStatusError
			if errors.As(err, &se) {
				return se.status < 500 && se.status != http.StatusTooManyRequests
			}
			return err == nil
		},
	})
}

type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	OSMType     string `json:"osm_type"`
	OSMID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.UserAgent)
	req.Header.Set("Accept", "application/json")

	body, err := n.breaker.Execute(func() (interface{}, error) {
		resp, err := n.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &nominatimStatusError{status: resp.StatusCode, text: http.StatusText(resp.StatusCode)}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body.([]byte), out)
}

// osmRef builds the lookup key, e.g. "N240109189" for node 240109189.
func osmRef(osmType string, id int64) string {
	if osmType == "" || id == 0 {
		return ""
	}
	return strings.ToUpper(osmType[:1]) + strconv.FormatInt(id, 10)
}

func (n *Nominatim) Predict(ctx context.Context, query string) ([]Prediction, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(n.Limit))

	var hits []nominatimPlace
	if err := n.get(ctx, "/search", params, &hits); err != nil {
		return nil, err
	}

	preds := make([]Prediction, 0, len(hits))
	for _, h := range hits {
		preds = append(preds, Prediction{
			PlaceID: strconv.FormatInt(h.PlaceID, 10),
			Text:    h.DisplayName,
			ref:     osmRef(h.OSMType, h.OSMID),
		})
	}
	return preds, nil
}

func (n *Nominatim) Details(ctx context.Context, p Prediction) (*weather.PlaceSearchResult, error) {
	if p.ref == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("osm_ids", p.ref)

	var hits []nominatimPlace
	if err := n.get(ctx, "/lookup", params, &hits); err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	h := hits[0]

	lat, err := strconv.ParseFloat(h.Lat, 64)
	if err != nil {
		return nil, nil
	}
	lon, err := strconv.ParseFloat(h.Lon, 64)
	if err != nil {
		return nil, nil
	}

	name := common.FirstNonEmpty(h.Name, h.Address.City, h.Address.Town, h.Address.Village, h.Address.County, "Unknown Place")
	return &weather.PlaceSearchResult{
		PlaceID:   p.PlaceID,
		Name:      name,
		Address:   common.FirstNonEmpty(h.DisplayName, "Unknown Address"),
		Latitude:  lat,
		Longitude: lon,
		Country:   common.OptionalString(h.Address.Country),
		State:     common.OptionalString(h.Address.State),
	}, nil
}
