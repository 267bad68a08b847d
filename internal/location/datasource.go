package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	savedLocationsKey  = "saved_locations"
	currentLocationKey = "current_location"
)

// DataSource persists the saved-location list and the current-location slot.
type DataSource interface {
	SavedLocations(ctx context.Context) ([]weather.SavedLocation, error)
	CurrentLocation(ctx context.Context) (*weather.SavedLocation, error)
	// SaveLocation upserts by id: an existing entry with the same id is replaced and
	// the location is appended at the end.
	SaveLocation(ctx context.Context, loc weather.SavedLocation) error
	RemoveLocation(ctx context.Context, id string) error
	SetCurrentLocation(ctx context.Context, loc weather.SavedLocation) error
	ClearAll(ctx context.Context) error
}

// PreferencesSource stores locations as JSON under two preference keys.
type PreferencesSource struct {
	prefs  store.Preferences
	logger *slog.Logger
}

func NewPreferencesSource(prefs store.Preferences, logger *slog.Logger) *PreferencesSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferencesSource{prefs: prefs, logger: logger.With("component", "location-store")}
}

// decodeLocations never fails: blank or malformed input is an empty list.
func decodeLocations(raw string) []weather.SavedLocation {
	if strings.TrimSpace(raw) == "" {
		return []weather.SavedLocation{}
	}
	var out []weather.SavedLocation
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []weather.SavedLocation{}
	}
	return out
}

// decodeLocation never fails: blank or malformed input is no location.
func decodeLocation(raw string) *weather.SavedLocation {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out *weather.SavedLocation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func (s *PreferencesSource) read(ctx context.Context, key string) (string, error) {
	v, err := s.prefs.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (s *PreferencesSource) SavedLocations(ctx context.Context) ([]weather.SavedLocation, error) {
	raw, err := s.read(ctx, savedLocationsKey)
	if err != nil {
		return nil, fmt.Errorf("read saved locations: %w", err)
	}
	return decodeLocations(raw), nil
}

func (s *PreferencesSource) CurrentLocation(ctx context.Context) (*weather.SavedLocation, error) {
	raw, err := s.read(ctx, currentLocationKey)
	if err != nil {
		return nil, fmt.Errorf("read current location: %w", err)
	}
	return decodeLocation(raw), nil
}

func (s *PreferencesSource) editList(ctx context.Context, fn func([]weather.SavedLocation) []weather.SavedLocation) error {
	return s.prefs.Edit(ctx, []string{savedLocationsKey}, func(cur map[string]string) (map[string]string, error) {
		list := fn(decodeLocations(cur[savedLocationsKey]))
		data, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return map[string]string{savedLocationsKey: string(data)}, nil
	})
}

func (s *PreferencesSource) SaveLocation(ctx context.Context, loc weather.SavedLocation) error {
	err := s.editList(ctx, func(list []weather.SavedLocation) []weather.SavedLocation {
		out := list[:0]
		for _, l := range list {
			if l.ID != loc.ID {
				out = append(out, l)
			}
		}
		return append(out, loc)
	})
	if err != nil {
		s.logger.Error("error saving location", "id", loc.ID, "error", err)
		return fmt.Errorf("save location %s: %w", loc.ID, err)
	}
	return nil
}

func (s *PreferencesSource) RemoveLocation(ctx context.Context, id string) error {
	err := s.editList(ctx, func(list []weather.SavedLocation) []weather.SavedLocation {
		out := list[:0]
		for _, l := range list {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out
	})
	if err != nil {
		return fmt.Errorf("remove location %s: %w", id, err)
	}
	return nil
}

func (s *PreferencesSource) SetCurrentLocation(ctx context.Context, loc weather.SavedLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode current location: %w", err)
	}
	if err := s.prefs.Set(ctx, currentLocationKey, string(data)); err != nil {
		return fmt.Errorf("set current location: %w", err)
	}
	return nil
}

func (s *PreferencesSource) ClearAll(ctx context.Context) error {
	return s.prefs.Delete(ctx, savedLocationsKey, currentLocationKey)
}
