package weatherdetails

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/reducer"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/weather"
)

type fakeWeather struct {
	mu         sync.Mutex
	currentErr error
	calls      []float64
}

func (f *fakeWeather) Current(ctx context.Context, lat, lon float64) <-chan result.Result[weather.WeatherData] {
	f.mu.Lock()
	f.calls = append(f.calls, lat)
	err := f.currentErr
	f.mu.Unlock()
	return result.Stream(ctx, func(context.Context) (weather.WeatherData, error) {
		if err != nil {
			return weather.WeatherData{}, err
		}
		return weather.WeatherData{
			Location: weather.SavedLocation{Latitude: lat, Longitude: lon},
			Current:  weather.CurrentWeather{Temperature: 21.5, Description: "clear sky"},
		}, nil
	})
}

func (f *fakeWeather) FiveDayForecast(ctx context.Context, lat, lon float64) <-chan result.Result[weather.WeatherData] {
	return result.Stream(ctx, func(context.Context) (weather.WeatherData, error) {
		return weather.WeatherData{Forecast: []weather.WeatherForecast{
			{Date: "2024-01-01 12:00:00"}, {Date: "2024-01-02 12:00:00"},
		}}, nil
	})
}

type fakeLocations struct {
	saved     *weather.SavedLocation
	savedErr  error
	deviceLoc *weather.SavedLocation
	deviceErr error
	perms     *device.StaticPermissions

	mu         sync.Mutex
	setCurrent []weather.SavedLocation
}

func (f *fakeLocations) CurrentSavedLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation] {
	return result.Stream(ctx, func(context.Context) (*weather.SavedLocation, error) {
		return f.saved, f.savedErr
	})
}

func (f *fakeLocations) DeviceLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation] {
	return result.Stream(ctx, func(context.Context) (*weather.SavedLocation, error) {
		return f.deviceLoc, f.deviceErr
	})
}

func (f *fakeLocations) SetCurrent(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool] {
	f.mu.Lock()
	f.setCurrent = append(f.setCurrent, loc)
	f.mu.Unlock()
	return result.Of(result.Failure[bool](apperror.New(apperror.KindLocationSaveFailed)))
}

func (f *fakeLocations) Permissions() device.Permissions {
	return f.perms
}

func quiet() reducer.Option {
	return reducer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newScreen(t *testing.T, ws WeatherSource, ls LocationSource, target *weather.SavedLocation) *Screen {
	t.Helper()
	s := New(context.Background(), ws, ls, target, quiet())
	t.Cleanup(s.Close)
	return s
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestExplicitLocationLoadsWeatherAndForecast(t *testing.T) {
	ws := &fakeWeather{}
	target := &weather.SavedLocation{ID: "paris", Name: "Paris", Latitude: 48.85, Longitude: 2.35}
	s := newScreen(t, ws, &fakeLocations{}, target)

	eventually(t, func() bool {
		st := s.State()
		return st.CurrentWeather != nil && len(st.Forecast) == 2 && !st.IsForecastLoading
	})
	st := s.State()
	assert.True(t, st.HasLocation)
	assert.False(t, st.ShowNoLocationState())
	require.NotNil(t, st.WeatherData())
	assert.Len(t, st.WeatherData().Forecast, 2)
	assert.Equal(t, 48.85, st.CurrentWeather.Location.Latitude)
}

func TestSavedCurrentLocationIsUsed(t *testing.T) {
	ws := &fakeWeather{}
	ls := &fakeLocations{saved: &weather.SavedLocation{ID: "riyadh", Latitude: 24.71, Longitude: 46.67}}
	s := newScreen(t, ws, ls, nil)

	eventually(t, func() bool { return s.State().CurrentWeather != nil })
	assert.Equal(t, "riyadh", s.Location().ID)
	assert.True(t, s.State().HasLocation)
}

func TestDeviceFallbackPersistsAndIgnoresSaveError(t *testing.T) {
	ws := &fakeWeather{}
	ls := &fakeLocations{
		savedErr:  errors.New("disk"),
		deviceLoc: &weather.SavedLocation{ID: "current_1", Name: "Current Location", Latitude: 1, Longitude: 2, IsCurrentLocation: true},
		perms:     device.NewStaticPermissions(device.PermissionGranted, true),
	}
	s := newScreen(t, ws, ls, nil)

	eventually(t, func() bool { return s.State().CurrentWeather != nil })
	ls.mu.Lock()
	defer ls.mu.Unlock()
	require.Len(t, ls.setCurrent, 1)
	assert.Equal(t, "current_1", ls.setCurrent[0].ID)
}

func TestNoPermissionAutoNavigatesOnce(t *testing.T) {
	ls := &fakeLocations{perms: device.NewStaticPermissions(device.PermissionDenied, true)}
	s := newScreen(t, &fakeWeather{}, ls, nil)

	var action Action
	eventually(t, func() bool {
		a, ok := s.Actions().Take()
		action = a
		return ok
	})
	assert.Equal(t, NavigateToManageLocationsAction{FromLocationIssue: true}, action)
	assert.False(t, s.State().IsCurrentWeatherLoading)
}

func TestNavigateToManageLocationsDisablesAutoNavigation(t *testing.T) {
	ls := &fakeLocations{perms: device.NewStaticPermissions(device.PermissionDenied, true)}
	s := newScreen(t, &fakeWeather{}, ls, nil)
	eventually(t, func() bool { _, ok := s.Actions().Peek(); return ok })

	s.Proceed(NavigateToManageLocations{})
	eventually(t, func() bool {
		a, ok := s.Actions().Peek()
		return ok && a == Action(NavigateToManageLocationsAction{FromLocationIssue: false})
	})
	assert.False(t, s.State().ShouldAutoNavigate)
	_, ok := s.Actions().Take()
	require.True(t, ok)

	// With auto navigation off a missing fix shows the empty state instead.
	s.Launch(s.loadCurrentLocation)
	eventually(t, func() bool { return s.State().ShowNoLocationState() })
	_, ok = s.Actions().Take()
	assert.False(t, ok)
}

func TestNilDeviceFixNavigates(t *testing.T) {
	ls := &fakeLocations{perms: device.NewStaticPermissions(device.PermissionGranted, true)}
	s := newScreen(t, &fakeWeather{}, ls, nil)

	eventually(t, func() bool {
		a, ok := s.Actions().Peek()
		return ok && a == Action(NavigateToManageLocationsAction{FromLocationIssue: true})
	})
}

func TestCurrentWeatherError(t *testing.T) {
	ws := &fakeWeather{currentErr: apperror.New(apperror.KindWeatherLoadFailed).WithMessage("city not found")}
	s := newScreen(t, ws, &fakeLocations{}, &weather.SavedLocation{ID: "x"})

	eventually(t, func() bool { return s.State().CurrentWeatherError != "" })
	st := s.State()
	assert.Equal(t, "city not found", st.CurrentWeatherError)
	assert.False(t, st.IsCurrentWeatherLoading)
	assert.Nil(t, st.WeatherData())
}

func TestDispatchAndEnvelope(t *testing.T) {
	s := newScreen(t, &fakeWeather{}, &fakeLocations{}, &weather.SavedLocation{ID: "x"})

	require.NoError(t, s.Dispatch([]byte(`{"type":"navigate_back"}`)))
	eventually(t, func() bool { _, ok := s.Actions().Peek(); return ok })
	env, ok := s.TakeAction()
	require.True(t, ok)
	assert.Equal(t, "navigate_back", env.Type)

	_, ok = s.TakeAction()
	assert.False(t, ok)

	err := s.Dispatch([]byte(`{"type":"fly"}`))
	assert.ErrorIs(t, err, screens.ErrUnknownIntent)
	err = s.Dispatch([]byte(`not json`))
	assert.ErrorIs(t, err, screens.ErrInvalidPayload)
}

func TestSnapshotJSON(t *testing.T) {
	s := newScreen(t, &fakeWeather{}, &fakeLocations{}, &weather.SavedLocation{ID: "x"})
	eventually(t, func() bool { return s.State().CurrentWeather != nil && len(s.State().Forecast) == 2 })

	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, true, m["hasLocation"])
	assert.Equal(t, false, m["showNoLocationState"])
	assert.Contains(t, m, "weatherData")
}

func TestFactoryBody(t *testing.T) {
	f := Factory(&fakeWeather{}, &fakeLocations{}, quiet())
	sess, err := f(context.Background(), []byte(`{"location":{"id":"tokyo","name":"Tokyo","latitude":35.68,"longitude":139.69}}`))
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, "tokyo", sess.(*Screen).Location().ID)

	_, err = f(context.Background(), []byte(`{"location":`))
	assert.Error(t, err)
}
