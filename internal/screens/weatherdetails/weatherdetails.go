// Package weatherdetails drives the current weather and five-day forecast screen for
// one location: an explicit one, the saved current location, or the device position.
package weatherdetails

import (
	"bytes"
	"context"
	"sync"

	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/reducer"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const Name = "weather-details"

type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) <-chan result.Result[weather.WeatherData]
	FiveDayForecast(ctx context.Context, lat, lon float64) <-chan result.Result[weather.WeatherData]
}

type LocationSource interface {
	CurrentSavedLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation]
	DeviceLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation]
	SetCurrent(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool]
	Permissions() device.Permissions
}

type Intent interface{ isIntent() }

type (
	LoadWeatherData           struct{}
	LoadFiveDayForecast       struct{}
	RefreshWeatherData        struct{}
	NavigateBack              struct{}
	NavigateToManageLocations struct{}
)

func (LoadWeatherData) isIntent()           {}
func (LoadFiveDayForecast) isIntent()       {}
func (RefreshWeatherData) isIntent()        {}
func (NavigateBack) isIntent()              {}
func (NavigateToManageLocations) isIntent() {}

type Action interface{ isAction() }

type (
	NavigateBackAction              struct{}
	NavigateToManageLocationsAction struct {
		FromLocationIssue bool `json:"fromLocationIssue"`
	}
)

func (NavigateBackAction) isAction()              {}
func (NavigateToManageLocationsAction) isAction() {}

type State struct {
	IsCurrentWeatherLoading bool                      `json:"isCurrentWeatherLoading"`
	IsForecastLoading       bool                      `json:"isForecastLoading"`
	CurrentWeather          *weather.WeatherData      `json:"currentWeatherData,omitempty"`
	Forecast                []weather.WeatherForecast `json:"forecastData"`
	CurrentWeatherError     string                    `json:"currentWeatherError,omitempty"`
	ForecastError           string                    `json:"forecastError,omitempty"`
	HasLocation             bool                      `json:"hasLocation"`
	ShouldAutoNavigate      bool                      `json:"shouldAutoNavigate"`
}

// ShowNoLocationState is true when there is nothing to show and nothing in flight.
func (s State) ShowNoLocationState() bool {
	return !s.HasLocation && !s.IsCurrentWeatherLoading && s.CurrentWeatherError == ""
}

// WeatherData merges the current conditions with the loaded forecast.
func (s State) WeatherData() *weather.WeatherData {
	if s.CurrentWeather == nil {
		return nil
	}
	d := s.CurrentWeather.WithForecast(s.Forecast)
	return &d
}

func initialState() State {
	return State{Forecast: []weather.WeatherForecast{}, ShouldAutoNavigate: true}
}

type Screen struct {
	*reducer.Controller[State, Intent, Action]

	weather   WeatherSource
	locations LocationSource

	mu       sync.Mutex
	location *weather.SavedLocation
}

// New starts the screen. With a non-nil target the screen shows that location;
// otherwise it resolves the saved current location, then the device position.
func New(ctx context.Context, ws WeatherSource, ls LocationSource, target *weather.SavedLocation, opts ...reducer.Option) *Screen {
	s := &Screen{weather: ws, locations: ls}
	opts = append([]reducer.Option{reducer.WithName(Name)}, opts...)
	s.Controller = reducer.New[State, Intent, Action](ctx, initialState(), s.handle, opts...)

	if target != nil {
		loc := *target
		s.setLocation(&loc)
		s.Update(func(st State) State {
			st.HasLocation = true
			return st
		})
		s.refresh()
	} else {
		s.Launch(s.loadCurrentLocation)
	}
	return s
}

func (s *Screen) handle(ctx context.Context, intent Intent) {
	switch intent.(type) {
	case LoadWeatherData:
		s.loadWeather(ctx)
	case LoadFiveDayForecast:
		s.loadForecast(ctx)
	case RefreshWeatherData:
		s.refresh()
	case NavigateBack:
		s.Send(NavigateBackAction{})
	case NavigateToManageLocations:
		s.Update(func(st State) State {
			st.ShouldAutoNavigate = false
			return st
		})
		s.Send(NavigateToManageLocationsAction{FromLocationIssue: false})
	}
}

// Location returns the location the screen is showing, if resolved.
func (s *Screen) Location() *weather.SavedLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return nil
	}
	loc := *s.location
	return &loc
}

func (s *Screen) setLocation(loc *weather.SavedLocation) {
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
}

func (s *Screen) refresh() {
	s.Launch(s.loadWeather)
	s.Launch(s.loadForecast)
}

func (s *Screen) loadWeather(ctx context.Context) {
	loc := s.Location()
	if loc == nil {
		return
	}
	result.Each(ctx, s.weather.Current(ctx, loc.Latitude, loc.Longitude), func(r result.Result[weather.WeatherData]) {
		s.Update(func(st State) State {
			switch {
			case r.IsLoading():
				st.IsCurrentWeatherLoading = true
				st.CurrentWeatherError = ""
			case r.IsSuccess():
				data, _ := r.Value()
				st.IsCurrentWeatherLoading = false
				st.CurrentWeather = &data
				st.CurrentWeatherError = ""
			default:
				st.IsCurrentWeatherLoading = false
				st.CurrentWeatherError = errorText(r.Err(), "Failed to load current weather")
			}
			return st
		})
	})
}

func (s *Screen) loadForecast(ctx context.Context) {
	loc := s.Location()
	if loc == nil {
		return
	}
	result.Each(ctx, s.weather.FiveDayForecast(ctx, loc.Latitude, loc.Longitude), func(r result.Result[weather.WeatherData]) {
		s.Update(func(st State) State {
			switch {
			case r.IsLoading():
				st.IsForecastLoading = true
				st.ForecastError = ""
			case r.IsSuccess():
				data, _ := r.Value()
				st.IsForecastLoading = false
				st.Forecast = data.Forecast
				st.ForecastError = ""
			default:
				st.IsForecastLoading = false
				st.ForecastError = errorText(r.Err(), "Failed to load forecast data")
			}
			return st
		})
	})
}

func (s *Screen) setLoading(loading bool) {
	s.Update(func(st State) State {
		st.IsCurrentWeatherLoading = loading
		return st
	})
}

func (s *Screen) loadCurrentLocation(ctx context.Context) {
	result.Each(ctx, s.locations.CurrentSavedLocation(ctx), func(r result.Result[*weather.SavedLocation]) {
		switch {
		case r.IsLoading():
			s.setLoading(true)
		case r.IsSuccess():
			if loc, _ := r.Value(); loc != nil {
				s.setLocation(loc)
				s.Update(func(st State) State {
					st.HasLocation = true
					st.IsCurrentWeatherLoading = false
					return st
				})
				s.refresh()
				return
			}
			s.setLoading(false)
			s.useDeviceLocation(ctx)
		default:
			s.Logger().Debug("saved current location unavailable", "error", r.Err())
			s.setLoading(false)
			s.useDeviceLocation(ctx)
		}
	})
}

func (s *Screen) useDeviceLocation(ctx context.Context) {
	perms := s.locations.Permissions()
	if perms == nil || !perms.HasLocationPermission() {
		s.noLocation()
		return
	}

	result.Each(ctx, s.locations.DeviceLocation(ctx), func(r result.Result[*weather.SavedLocation]) {
		switch {
		case r.IsLoading():
			s.setLoading(true)
		case r.IsSuccess():
			loc, _ := r.Value()
			if loc == nil {
				s.noLocation()
				return
			}
			s.setLocation(loc)
			s.Update(func(st State) State {
				st.HasLocation = true
				return st
			})
			// A failed save still shows the weather.
			if saved := result.Last(ctx, s.locations.SetCurrent(ctx, *loc)); saved.IsError() {
				s.Logger().Warn("could not persist current location", "error", saved.Err())
			}
			s.refresh()
		default:
			s.Logger().Debug("device location failed", "error", r.Err())
			s.noLocation()
		}
	})
}

// noLocation redirects to location management the first time, and shows the empty
// state after the user has been there.
func (s *Screen) noLocation() {
	st := s.Update(func(st State) State {
		st.IsCurrentWeatherLoading = false
		if !st.ShouldAutoNavigate {
			st.HasLocation = false
		}
		return st
	})
	if st.ShouldAutoNavigate {
		s.Send(NavigateToManageLocationsAction{FromLocationIssue: true})
	}
}

func errorText(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// DecodeIntent maps the wire form {"type": ...} onto an Intent.
func DecodeIntent(data []byte) (Intent, error) {
	typ, err := screens.IntentType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "load_weather_data":
		return LoadWeatherData{}, nil
	case "load_five_day_forecast":
		return LoadFiveDayForecast{}, nil
	case "refresh_weather_data":
		return RefreshWeatherData{}, nil
	case "navigate_back":
		return NavigateBack{}, nil
	case "navigate_to_manage_locations":
		return NavigateToManageLocations{}, nil
	}
	return nil, screens.UnknownIntent(typ)
}

// View is the JSON snapshot with derived fields.
type View struct {
	State
	ShowNoLocationState bool                 `json:"showNoLocationState"`
	WeatherData         *weather.WeatherData `json:"weatherData,omitempty"`
}

func (s *Screen) Dispatch(data []byte) error {
	in, err := DecodeIntent(data)
	if err != nil {
		return err
	}
	s.Proceed(in)
	return nil
}

func (s *Screen) Snapshot() any {
	st := s.State()
	return View{State: st, ShowNoLocationState: st.ShowNoLocationState(), WeatherData: st.WeatherData()}
}

func (s *Screen) TakeAction() (screens.Envelope, bool) {
	a, ok := s.Actions().Take()
	if !ok {
		return screens.Envelope{}, false
	}
	return envelope(a)
}

func (s *Screen) PeekAction() (screens.Envelope, bool) {
	a, ok := s.Actions().Peek()
	if !ok {
		return screens.Envelope{}, false
	}
	return envelope(a)
}

func envelope(a Action) (screens.Envelope, bool) {
	switch a := a.(type) {
	case NavigateBackAction:
		return screens.Envelope{Type: "navigate_back"}, true
	case NavigateToManageLocationsAction:
		return screens.Envelope{Type: "navigate_to_manage_locations", Payload: a}, true
	}
	return screens.Envelope{}, false
}

type createRequest struct {
	Location *weather.SavedLocation `json:"location"`
}

// Factory builds sessions. The optional body is {"location": SavedLocation}.
func Factory(ws WeatherSource, ls LocationSource, opts ...reducer.Option) screens.Factory {
	return func(ctx context.Context, body []byte) (screens.Session, error) {
		var req createRequest
		if len(bytes.TrimSpace(body)) > 0 {
			var err error
			if req, err = screens.Decode[createRequest](body); err != nil {
				return nil, err
			}
		}
		return New(ctx, ws, ls, req.Location, opts...), nil
	}
}
