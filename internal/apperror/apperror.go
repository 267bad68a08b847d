package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError.
type Kind string

const (
	KindUnknown                     Kind = "unknown"
	KindNetwork                     Kind = "network_error"
	KindLocationMaxExceeded         Kind = "location_max_exceeded"
	KindLocationAlreadyExists       Kind = "location_already_exists"
	KindLocationSaveFailed          Kind = "location_save_failed"
	KindLocationLoadFailed          Kind = "location_load_failed"
	KindLocationDataNull            Kind = "location_data_null"
	KindLocationGetFailed           Kind = "location_get_failed"
	KindWeatherLoadFailed           Kind = "weather_load_failed"
	KindForecastLoadFailed          Kind = "forecast_load_failed"
	KindPermissionDenied            Kind = "permission_denied"
	KindPermissionPermanentlyDenied Kind = "permission_permanently_denied"
)

// templates hold the default user-facing text per kind. Verbs are filled from Params.
var templates = map[Kind]string{
	KindUnknown:                     "something went wrong",
	KindNetwork:                     "network error, check your connection",
	KindLocationMaxExceeded:         "you can save at most %v locations",
	KindLocationAlreadyExists:       "location already saved",
	KindLocationSaveFailed:          "failed to save location",
	KindLocationLoadFailed:          "failed to load locations",
	KindLocationDataNull:            "location data is null",
	KindLocationGetFailed:           "failed to get location",
	KindWeatherLoadFailed:           "failed to load current weather",
	KindForecastLoadFailed:          "failed to load forecast data",
	KindPermissionDenied:            "location permission denied",
	KindPermissionPermanentlyDenied: "location permission permanently denied, enable it in settings",
}

// AppError is the domain error carried by Result.Error.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Code    *int   `json:"code,omitempty"`
	Cause   error  `json:"-"`
	Params  []any  `json:"params,omitempty"`
}

// New builds an AppError of the given kind with optional message parameters.
func New(kind Kind, params ...any) *AppError {
	return &AppError{Kind: kind, Params: params}
}

// Wrap builds an AppError of the given kind around cause.
func Wrap(kind Kind, cause error) *AppError {
	e := &AppError{Kind: kind, Cause: cause}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// WithMessage returns a copy of e carrying msg.
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

// WithCode returns a copy of e carrying code.
func (e *AppError) WithCode(code int) *AppError {
	c := *e
	c.Code = &code
	return &c
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Text()
}

// Text renders the kind's default message interpolated with Params.
func (e *AppError) Text() string {
	tmpl, ok := templates[e.Kind]
	if !ok {
		tmpl = templates[KindUnknown]
	}
	if len(e.Params) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, e.Params...)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports kind equality so errors.Is(err, apperror.New(kind)) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// From maps any error onto an AppError. Existing AppErrors in the chain are returned as is.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(KindUnknown, err)
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if ae := From(err); ae != nil {
		return ae.Kind
	}
	return KindUnknown
}
