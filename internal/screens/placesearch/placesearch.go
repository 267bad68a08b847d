// Package placesearch drives the add-location screen: debounced place search and
// saving a chosen result.
package placesearch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/reducer"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const Name = "places-search"

// DefaultDebounce is the quiet period before a query is searched.
const DefaultDebounce = 300 * time.Millisecond

type PlaceSource interface {
	Search(ctx context.Context, query string) <-chan result.Result[[]weather.PlaceSearchResult]
}

type LocationSource interface {
	SavedLocations(ctx context.Context) <-chan result.Result[[]weather.SavedLocation]
	SaveNew(ctx context.Context, loc weather.SavedLocation) <-chan result.Result[bool]
}

type Intent interface{ isIntent() }

type (
	SearchPlaces struct {
		Query string `json:"query"`
	}
	AddLocation struct {
		Place weather.PlaceSearchResult `json:"place"`
	}
	LoadSavedLocations struct{}
	ClearSearch        struct{}
)

func (SearchPlaces) isIntent()       {}
func (AddLocation) isIntent()        {}
func (LoadSavedLocations) isIntent() {}
func (ClearSearch) isIntent()        {}

type Action interface{ isAction() }

type (
	ShowErrorAction struct {
		Message string `json:"message"`
	}
	ShowSuccessAction struct {
		Message string `json:"message"`
	}
	NavigateBackAction struct{}
)

func (ShowErrorAction) isAction()    {}
func (ShowSuccessAction) isAction()  {}
func (NavigateBackAction) isAction() {}

type State struct {
	SearchResults             []weather.PlaceSearchResult `json:"searchResults"`
	SavedLocations            []weather.SavedLocation     `json:"savedLocations"`
	IsSearching               bool                        `json:"isSearching"`
	IsAddingLocation          bool                        `json:"isAddingLocation"`
	AddingLocationID          string                      `json:"addingLocationId,omitempty"`
	SearchError               string                      `json:"searchError,omitempty"`
	IsMaxLocationsReached     bool                        `json:"isMaxLocationsReached"`
	IsLocationServicesEnabled bool                        `json:"isLocationServicesEnabled"`
}

func initialState() State {
	return State{
		SearchResults:             []weather.PlaceSearchResult{},
		SavedLocations:            []weather.SavedLocation{},
		IsLocationServicesEnabled: true,
	}
}

type Screen struct {
	*reducer.Controller[State, Intent, Action]

	places    PlaceSource
	locations LocationSource
	debounce  time.Duration

	mu        sync.Mutex
	query     string
	lastQuery string
	timer     *time.Timer
}

// New starts the screen. A non-positive debounce uses DefaultDebounce.
func New(ctx context.Context, ps PlaceSource, ls LocationSource, debounce time.Duration, opts ...reducer.Option) *Screen {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	s := &Screen{places: ps, locations: ls, debounce: debounce}
	opts = append([]reducer.Option{reducer.WithName(Name)}, opts...)
	s.Controller = reducer.New[State, Intent, Action](ctx, initialState(), s.handle, opts...)
	s.Launch(s.loadSavedLocations)
	return s
}

func (s *Screen) handle(ctx context.Context, intent Intent) {
	switch in := intent.(type) {
	case SearchPlaces:
		s.setQuery(in.Query)
		if strings.TrimSpace(in.Query) == "" {
			s.clearResults()
		}
	case AddLocation:
		s.addLocation(ctx, in.Place)
	case LoadSavedLocations:
		s.loadSavedLocations(ctx)
	case ClearSearch:
		s.setQuery("")
		s.clearResults()
	}
}

// Query returns the latest typed query.
func (s *Screen) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// setQuery restarts the debounce window when the query changes.
func (s *Screen) setQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q == s.query && s.timer != nil {
		return
	}
	s.query = q
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.settle(q) })
}

// settle applies distinct-until-changed and the blank filter to a debounced query.
func (s *Screen) settle(q string) {
	s.mu.Lock()
	if q != s.query || q == s.lastQuery {
		s.mu.Unlock()
		return
	}
	s.lastQuery = q
	s.mu.Unlock()

	if strings.TrimSpace(q) == "" {
		return
	}
	s.Launch(func(ctx context.Context) { s.performSearch(ctx, q) })
}

func (s *Screen) clearResults() {
	s.Update(func(st State) State {
		st.SearchResults = []weather.PlaceSearchResult{}
		st.IsSearching = false
		st.SearchError = ""
		return st
	})
}

func (s *Screen) performSearch(ctx context.Context, q string) {
	s.Logger().Debug("searching places", "query", q)
	result.Each(ctx, s.places.Search(ctx, q), func(r result.Result[[]weather.PlaceSearchResult]) {
		switch {
		case r.IsLoading():
			s.Update(func(st State) State {
				st.IsSearching = true
				st.SearchError = ""
				return st
			})
		case r.IsSuccess():
			list, _ := r.Value()
			s.Update(func(st State) State {
				st.SearchResults = list
				st.IsSearching = false
				st.SearchError = ""
				return st
			})
		default:
			msg := r.Err().Error()
			s.Update(func(st State) State {
				st.SearchResults = []weather.PlaceSearchResult{}
				st.IsSearching = false
				st.SearchError = msg
				return st
			})
			s.Send(ShowErrorAction{Message: msg})
		}
	})
}

func (s *Screen) resetAdding() {
	s.Update(func(st State) State {
		st.IsAddingLocation = false
		st.AddingLocationID = ""
		return st
	})
}

func (s *Screen) addLocation(ctx context.Context, place weather.PlaceSearchResult) {
	s.Update(func(st State) State {
		st.IsAddingLocation = true
		st.AddingLocationID = place.PlaceID
		return st
	})

	result.Each(ctx, s.locations.SaveNew(ctx, place.ToSavedLocation()), func(r result.Result[bool]) {
		switch {
		case r.IsLoading():
		case r.IsSuccess():
			if ok, _ := r.Value(); !ok {
				s.resetAdding()
				s.Send(ShowErrorAction{Message: "Failed to save location"})
				return
			}
			s.loadSavedLocations(ctx)
			s.Send(ShowSuccessAction{Message: fmt.Sprintf("%s added successfully", place.Name)})
			s.Send(NavigateBackAction{})
		default:
			s.resetAdding()
			s.Send(ShowErrorAction{Message: r.Err().Error()})
		}
	})
}

// loadSavedLocations refreshes the saved list; a failed load shows an empty list.
func (s *Screen) loadSavedLocations(ctx context.Context) {
	r := result.Last(ctx, s.locations.SavedLocations(ctx))
	list, ok := r.Value()
	if !ok || list == nil {
		list = []weather.SavedLocation{}
	}
	s.Update(func(st State) State {
		st.SavedLocations = list
		st.IsMaxLocationsReached = len(list) >= location.MaxSavedLocations
		st.IsAddingLocation = false
		st.AddingLocationID = ""
		return st
	})
}

// Close stops the pending debounce and ends the screen.
func (s *Screen) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.Controller.Close()
}

func DecodeIntent(data []byte) (Intent, error) {
	typ, err := screens.IntentType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "search_places":
		return screens.Decode[SearchPlaces](data)
	case "add_location":
		in, err := screens.Decode[AddLocation](data)
		if err == nil && in.Place.PlaceID == "" {
			err = fmt.Errorf("%w: place.placeId is required", screens.ErrInvalidPayload)
		}
		return in, err
	case "load_saved_locations":
		return LoadSavedLocations{}, nil
	case "clear_search":
		return ClearSearch{}, nil
	}
	return nil, screens.UnknownIntent(typ)
}

// View is the JSON snapshot including the typed query.
type View struct {
	State
	Query string `json:"query"`
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
	return View{State: s.State(), Query: s.Query()}
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
	case ShowErrorAction:
		return screens.Envelope{Type: "show_error", Payload: a}, true
	case ShowSuccessAction:
		return screens.Envelope{Type: "show_success", Payload: a}, true
	case NavigateBackAction:
		return screens.Envelope{Type: "navigate_back"}, true
	}
	return screens.Envelope{}, false
}

func Factory(ps PlaceSource, ls LocationSource, debounce time.Duration, opts ...reducer.Option) screens.Factory {
	return func(ctx context.Context, _ []byte) (screens.Session, error) {
		return New(ctx, ps, ls, debounce, opts...), nil
	}
}
