// Package managelocations drives the location list screen: the permission flow, the
// device-derived current location with its weather, and the saved list.
package managelocations

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/reducer"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const Name = "manage-locations"

type LocationSource interface {
	SavedLocations(ctx context.Context) <-chan result.Result[[]weather.SavedLocation]
	CurrentSavedLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation]
	DeviceLocation(ctx context.Context) <-chan result.Result[*weather.SavedLocation]
	SetCurrent(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool]
	Remove(ctx context.Context, id string) <-chan result.Result[bool]
	Permissions() device.Permissions
	RecordPermission(mode device.PermissionMode) bool
}

type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) <-chan result.Result[weather.WeatherData]
}

type Intent interface{ isIntent() }

type (
	CheckPermissionState      struct{}
	LocationPermissionGranted struct{}
	LocationPermissionDenied  struct {
		IsPermanentlyDenied bool `json:"isPermanentlyDenied"`
		ShouldShowRationale bool `json:"shouldShowRationale"`
	}
	RequestPermission      struct{}
	OpenAppSettings        struct{}
	OpenLocationSettings   struct{}
	LoadData               struct{}
	UseCurrentLocation     struct{}
	RefreshCurrentLocation struct{}
	LoadSavedLocations     struct{}
	RemoveLocation         struct {
		LocationID string `json:"locationId" validate:"required"`
	}
	SelectLocation struct {
		Location weather.SavedLocation `json:"location"`
	}
	NavigateToWeatherDetails struct {
		Location weather.SavedLocation `json:"location"`
	}
	NavigateToPlacesSearch struct{}
)

func (CheckPermissionState) isIntent()      {}
func (LocationPermissionGranted) isIntent() {}
func (LocationPermissionDenied) isIntent()  {}
func (RequestPermission) isIntent()         {}
func (OpenAppSettings) isIntent()           {}
func (OpenLocationSettings) isIntent()      {}
func (LoadData) isIntent()                  {}
func (UseCurrentLocation) isIntent()        {}
func (RefreshCurrentLocation) isIntent()    {}
func (LoadSavedLocations) isIntent()        {}
func (RemoveLocation) isIntent()            {}
func (SelectLocation) isIntent()            {}
func (NavigateToWeatherDetails) isIntent()  {}
func (NavigateToPlacesSearch) isIntent()    {}

type Action interface{ isAction() }

type (
	RequestPermissionAction        struct{}
	OpenAppSettingsAction          struct{}
	OpenLocationSettingsAction     struct{}
	NavigateToWeatherDetailsAction struct {
		Location weather.SavedLocation `json:"location"`
	}
	NavigateToPlacesSearchAction struct{}
	ShowMessageAction            struct {
		Message string `json:"message"`
	}
)

func (RequestPermissionAction) isAction()        {}
func (OpenAppSettingsAction) isAction()          {}
func (OpenLocationSettingsAction) isAction()     {}
func (NavigateToWeatherDetailsAction) isAction() {}
func (NavigateToPlacesSearchAction) isAction()   {}
func (ShowMessageAction) isAction()              {}

type PermissionState struct {
	HasLocationPermission         bool `json:"hasLocationPermission"`
	ShouldShowRationale           bool `json:"shouldShowRationale"`
	IsPermissionDeniedPermanently bool `json:"isPermissionDeniedPermanently"`
	IsLocationEnabled             bool `json:"isLocationEnabled"`
	PermissionRequestCount        int  `json:"permissionRequestCount"`
}

type State struct {
	IsLoadingCurrentLocation bool                    `json:"isLoadingCurrentLocation"`
	IsLoadingWeather         bool                    `json:"isLoadingWeather"`
	IsLoadingSavedLocations  bool                    `json:"isLoadingSavedLocations"`
	Permission               PermissionState         `json:"permissionState"`
	CurrentSavedLocation     *weather.SavedLocation  `json:"currentSavedLocation,omitempty"`
	CurrentLocationWeather   *weather.WeatherData    `json:"currentLocationWeather,omitempty"`
	SavedLocations           []weather.SavedLocation `json:"savedLocationList"`
	IsMaxLocationsReached    bool                    `json:"isMaxLocationsReached"`
	Error                    *apperror.AppError      `json:"error,omitempty"`
}

type Screen struct {
	*reducer.Controller[State, Intent, Action]

	locations LocationSource
	weather   WeatherSource
}

// New starts the screen and loads its initial data.
func New(ctx context.Context, ls LocationSource, ws WeatherSource, opts ...reducer.Option) *Screen {
	s := &Screen{locations: ls, weather: ws}
	opts = append([]reducer.Option{reducer.WithName(Name)}, opts...)
	s.Controller = reducer.New[State, Intent, Action](ctx, State{SavedLocations: []weather.SavedLocation{}}, s.handle, opts...)
	s.loadInitialData(s.Context())
	return s
}

func (s *Screen) handle(ctx context.Context, intent Intent) {
	switch in := intent.(type) {
	case CheckPermissionState:
		s.checkPermissionState()
	case LocationPermissionGranted:
		s.locations.RecordPermission(device.PermissionGranted)
		s.Update(func(st State) State {
			st.Permission.HasLocationPermission = true
			st.Permission.IsPermissionDeniedPermanently = false
			st.Permission.ShouldShowRationale = false
			if st.Error != nil && isPermissionKind(st.Error.Kind) {
				st.Error = nil
			}
			return st
		})
		s.loadCurrentLocation(ctx)
	case LocationPermissionDenied:
		s.permissionDenied(in.IsPermanentlyDenied, in.ShouldShowRationale)
	case RequestPermission:
		s.Send(RequestPermissionAction{})
	case OpenAppSettings:
		s.Send(OpenAppSettingsAction{})
	case OpenLocationSettings:
		s.Send(OpenLocationSettingsAction{})
	case LoadData:
		s.loadInitialData(ctx)
	case UseCurrentLocation, RefreshCurrentLocation:
		s.useCurrentLocation(ctx)
	case LoadSavedLocations:
		s.loadSavedLocations(ctx)
	case RemoveLocation:
		s.removeLocation(ctx, in.LocationID)
	case SelectLocation:
		s.Send(NavigateToWeatherDetailsAction{Location: in.Location})
	case NavigateToWeatherDetails:
		s.Send(NavigateToWeatherDetailsAction{Location: in.Location})
	case NavigateToPlacesSearch:
		s.Send(NavigateToPlacesSearchAction{})
	}
}

// loadInitialData reads permissions synchronously and loads the rest in the background.
func (s *Screen) loadInitialData(context.Context) {
	granted := s.checkPermissionState()
	s.Launch(s.loadSavedLocations)
	if granted {
		s.Launch(s.loadCurrentLocation)
	}
}

// checkPermissionState refreshes the permission flags from the platform and reports
// whether permission is granted.
func (s *Screen) checkPermissionState() bool {
	perms := s.locations.Permissions()
	granted, enabled := false, false
	if perms != nil {
		granted, enabled = perms.HasLocationPermission(), perms.IsLocationEnabled()
	}
	s.Update(func(st State) State {
		st.Permission.HasLocationPermission = granted
		st.Permission.IsLocationEnabled = enabled
		if granted {
			st.Permission.IsPermissionDeniedPermanently = false
		}
		st.Permission.ShouldShowRationale = false
		return st
	})
	return granted
}

func (s *Screen) permissionDenied(permanently, rationale bool) {
	if permanently {
		s.locations.RecordPermission(device.PermissionDeniedPermanently)
	} else {
		s.locations.RecordPermission(device.PermissionDenied)
	}
	s.Update(func(st State) State {
		st.Permission.HasLocationPermission = false
		st.Permission.IsPermissionDeniedPermanently = permanently
		st.Permission.ShouldShowRationale = rationale
		st.Permission.PermissionRequestCount++
		st.Error = permissionError(permanently)
		return st
	})
}

func isPermissionKind(k apperror.Kind) bool {
	return k == apperror.KindPermissionDenied || k == apperror.KindPermissionPermanentlyDenied
}

func permissionError(permanently bool) *apperror.AppError {
	if permanently {
		return apperror.New(apperror.KindPermissionPermanentlyDenied)
	}
	return apperror.New(apperror.KindPermissionDenied)
}

func (s *Screen) loadCurrentLocation(ctx context.Context) {
	result.Each(ctx, s.locations.CurrentSavedLocation(ctx), func(r result.Result[*weather.SavedLocation]) {
		switch {
		case r.IsLoading():
			s.Update(func(st State) State {
				st.IsLoadingCurrentLocation = true
				return st
			})
		case r.IsSuccess():
			if loc, _ := r.Value(); loc != nil {
				s.Update(func(st State) State {
					st.CurrentSavedLocation = loc
					st.IsLoadingCurrentLocation = false
					return st
				})
				s.loadWeatherFor(ctx, loc.Latitude, loc.Longitude)
				return
			}
			s.useCurrentLocation(ctx)
		default:
			s.useCurrentLocation(ctx)
		}
	})
}

func (s *Screen) fail(err *apperror.AppError) {
	s.Update(func(st State) State {
		st.IsLoadingCurrentLocation = false
		st.Error = err
		return st
	})
}

func (s *Screen) useCurrentLocation(ctx context.Context) {
	s.Update(func(st State) State {
		st.IsLoadingCurrentLocation = true
		return st
	})

	if perms := s.locations.Permissions(); perms != nil && !perms.HasLocationPermission() {
		s.fail(permissionError(s.State().Permission.IsPermissionDeniedPermanently))
		return
	}

	result.Each(ctx, s.locations.DeviceLocation(ctx), func(r result.Result[*weather.SavedLocation]) {
		switch {
		case r.IsLoading():
			s.Update(func(st State) State {
				st.IsLoadingCurrentLocation = true
				return st
			})
		case r.IsSuccess():
			loc, _ := r.Value()
			if loc == nil {
				s.fail(apperror.New(apperror.KindLocationDataNull))
				return
			}
			saved := result.Last(ctx, s.locations.SetCurrent(ctx, *loc))
			if saved.IsError() {
				s.fail(saved.Err())
				return
			}
			s.Update(func(st State) State {
				st.CurrentSavedLocation = loc
				st.IsLoadingCurrentLocation = false
				st.Error = nil
				return st
			})
			s.loadWeatherFor(ctx, loc.Latitude, loc.Longitude)
		default:
			s.fail(r.Err())
		}
	})
}

func (s *Screen) loadSavedLocations(ctx context.Context) {
	result.Each(ctx, s.locations.SavedLocations(ctx), func(r result.Result[[]weather.SavedLocation]) {
		s.Update(func(st State) State {
			switch {
			case r.IsLoading():
				st.IsLoadingSavedLocations = true
			case r.IsSuccess():
				list, _ := r.Value()
				st.SavedLocations = list
				st.IsLoadingSavedLocations = false
				st.IsMaxLocationsReached = len(list) >= location.MaxSavedLocations
			default:
				st.IsLoadingSavedLocations = false
				st.Error = r.Err()
			}
			return st
		})
	})
}

func (s *Screen) removeLocation(ctx context.Context, id string) {
	r := result.Last(ctx, s.locations.Remove(ctx, id))
	if !r.IsSuccess() {
		s.Logger().Warn("remove location failed", "id", id, "error", r.Err())
		return
	}
	s.Send(ShowMessageAction{Message: "Location removed"})
	s.loadSavedLocations(ctx)
}

// loadWeatherFor fetches weather for the current location and copies the resolved
// country and state onto it.
func (s *Screen) loadWeatherFor(ctx context.Context, lat, lon float64) {
	result.Each(ctx, s.weather.Current(ctx, lat, lon), func(r result.Result[weather.WeatherData]) {
		s.Update(func(st State) State {
			switch {
			case r.IsLoading():
				st.IsLoadingWeather = true
			case r.IsSuccess():
				w, _ := r.Value()
				st.CurrentLocationWeather = &w
				if st.CurrentSavedLocation != nil {
					cur := *st.CurrentSavedLocation
					cur.Country = w.Location.Country
					cur.State = w.Location.State
					st.CurrentSavedLocation = &cur
				}
				st.IsLoadingWeather = false
				st.Error = nil
			default:
				st.IsLoadingWeather = false
				st.Error = r.Err()
			}
			return st
		})
	})
}

func DecodeIntent(data []byte) (Intent, error) {
	typ, err := screens.IntentType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "check_permission_state":
		return CheckPermissionState{}, nil
	case "location_permission_granted":
		return LocationPermissionGranted{}, nil
	case "location_permission_denied":
		return screens.Decode[LocationPermissionDenied](data)
	case "request_permission":
		return RequestPermission{}, nil
	case "open_app_settings":
		return OpenAppSettings{}, nil
	case "open_location_settings":
		return OpenLocationSettings{}, nil
	case "load_data":
		return LoadData{}, nil
	case "use_current_location":
		return UseCurrentLocation{}, nil
	case "refresh_current_location":
		return RefreshCurrentLocation{}, nil
	case "load_saved_locations":
		return LoadSavedLocations{}, nil
	case "remove_location":
		return screens.Decode[RemoveLocation](data)
	case "select_location":
		in, err := screens.Decode[SelectLocation](data)
		if err == nil && in.Location.ID == "" {
			err = fmt.Errorf("%w: location.id is required", screens.ErrInvalidPayload)
		}
		return in, err
	case "navigate_to_weather_details":
		in, err := screens.Decode[NavigateToWeatherDetails](data)
		if err == nil && in.Location.ID == "" {
			err = fmt.Errorf("%w: location.id is required", screens.ErrInvalidPayload)
		}
		return in, err
	case "navigate_to_places_search":
		return NavigateToPlacesSearch{}, nil
	}
	return nil, screens.UnknownIntent(typ)
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
	return s.State()
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
	case RequestPermissionAction:
		return screens.Envelope{Type: "request_permission"}, true
	case OpenAppSettingsAction:
		return screens.Envelope{Type: "open_app_settings"}, true
	case OpenLocationSettingsAction:
		return screens.Envelope{Type: "open_location_settings"}, true
	case NavigateToWeatherDetailsAction:
		return screens.Envelope{Type: "navigate_to_weather_details", Payload: a}, true
	case NavigateToPlacesSearchAction:
		return screens.Envelope{Type: "navigate_to_places_search"}, true
	case ShowMessageAction:
		return screens.Envelope{Type: "show_message", Payload: a}, true
	}
	return screens.Envelope{}, false
}

func Factory(ls LocationSource, ws WeatherSource, opts ...reducer.Option) screens.Factory {
	return func(ctx context.Context, _ []byte) (screens.Session, error) {
		return New(ctx, ls, ws, opts...), nil
	}
}
