// Package location owns the saved-location rules: the five-entry cap, uniqueness by id
// or coordinates, and the independent current-location slot.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// MaxSavedLocations caps the saved list. The current-location slot is not counted.
const MaxSavedLocations = 5

// CurrentLocationName labels locations resolved from the device.
const CurrentLocationName = "Current Location"

// Service exposes the location use cases as result streams.
type Service struct {
	source  DataSource
	locator device.Locator
	perms   device.Permissions
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(source DataSource, locator device.Locator, perms device.Permissions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		locator: locator,
		perms:   perms,
		logger:  logger.With("component", "location"),
		now:     time.Now,
	}
}

// Permissions returns the permission collaborator.
func (s *Service) Permissions() device.Permissions {
	return s.perms
}

// RecordPermission passes a prompt answer to the permission collaborator. It reports
// false when the collaborator is read-only.
func (s *Service) RecordPermission(mode device.PermissionMode) bool {
	rec, ok := s.perms.(device.PermissionRecorder)
	if !ok {
		return false
	}
	rec.SetMode(mode)
	s.logger.Info("location permission recorded", "mode", mode)
	return true
}

func (s *Service) SavedLocations(ctx context.Context) <-chan result.Result[[]weather.SavedLocation] {
	return result.Stream(ctx, func(ctx context.Context) ([]weather.SavedLocation, error) {
		list, err := s.source.SavedLocations(ctx)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindLocationLoadFailed, err)
		}
		return list, nil
	})
}

// CurrentSavedLocation streams the persisted current location; nil when none is stored.
func (s *Service) CurrentSavedLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation] {
	return result.Stream(ctx, func(ctx context.Context) (*weather.SavedLocation, error) {
		loc, err := s.source.CurrentLocation(ctx)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindLocationLoadFailed, err)
		}
		return loc, nil
	})
}

func (s *Service) CanAddMore(ctx context.Context) <-chan result.Result[bool] {
	return result.Map(ctx, s.SavedLocations(ctx), func(list []weather.SavedLocation) bool {
		return len(list) < MaxSavedLocations
	})
}

// SaveNew enforces the cap and uniqueness rules, then writes. The check and the write
// are separate steps, so two concurrent saves may both pass the check.
func (s *Service) SaveNew(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool] {
	return result.Stream(ctx, func(ctx context.Context) (bool, error) {
		current, err := s.source.SavedLocations(ctx)
		if err != nil {
			return false, apperror.Wrap(apperror.KindLocationSaveFailed, err)
		}

		if len(current) >= MaxSavedLocations {
			return false, apperror.New(apperror.KindLocationMaxExceeded, MaxSavedLocations)
		}
		for _, existing := range current {
			if existing.ID == loc.ID || existing.SameCoordinates(loc) {
				return false, apperror.New(apperror.KindLocationAlreadyExists)
			}
		}

		if loc.AddedAt == 0 {
			loc.AddedAt = s.now().UnixMilli()
		}
		if err := s.source.SaveLocation(ctx, loc); err != nil {
			return false, apperror.Wrap(apperror.KindLocationSaveFailed, err)
		}
		s.logger.Info("location saved", "id", loc.ID, "name", loc.Name)
		return true, nil
	})
}

// Remove deletes by id. Unknown ids are not an error.
func (s *Service) Remove(ctx context.Context, id string) <-chan result.Result[bool] {
	return result.Stream(ctx, func(ctx context.Context) (bool, error) {
		if err := s.source.RemoveLocation(ctx, id); err != nil {
			return false, apperror.Wrap(apperror.KindLocationSaveFailed, err)
		}
		return true, nil
	})
}

// SetCurrent overwrites the current-location slot without cap or uniqueness checks.
func (s *Service) SetCurrent(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool] {
	return result.Stream(ctx, func(ctx context.Context) (bool, error) {
		if err := s.source.SetCurrentLocation(ctx, loc); err != nil {
			return false, apperror.Wrap(apperror.KindLocationSaveFailed, err)
		}
		return true, nil
	})
}

// DeviceLocation streams the device position as a current location; nil when no fix
// is available.
func (s *Service) DeviceLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation] {
	return result.Stream(ctx, func(ctx context.Context) (*weather.SavedLocation, error) {
		c, err := device.Resolve(ctx, s.locator, s.perms)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindLocationGetFailed, err)
		}
		if c == nil {
			return nil, nil
		}
		now := s.now()
		loc := weather.SavedLocation{
			ID:                fmt.Sprintf("current_%d", now.UnixMilli()),
			Name:              CurrentLocationName,
			Latitude:          c.Latitude,
			Longitude:         c.Longitude,
			IsCurrentLocation: true,
			AddedAt:           now.UnixMilli(),
		}
		return &loc, nil
	})
}
