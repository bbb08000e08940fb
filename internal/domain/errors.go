package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies how a search failed.
type ErrorKind string

const (
	KindEmptyQuery          ErrorKind = "empty_query"
	KindGeocodeNotFound     ErrorKind = "geocode_not_found"
	KindNetwork             ErrorKind = "network_error"
	KindForecastUnavailable ErrorKind = "forecast_unavailable"
)

// Leg names one of the two forecast sub-fetches.
type Leg string

const (
	LegConditions    Leg = "conditions"
	LegPrecipitation Leg = "precipitation"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrEmptyQuery          = errors.New("empty query")
	ErrGeocodeNotFound     = errors.New("location not found")
	ErrNetwork             = errors.New("network error")
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// Error is the terminal failure of one search run.
type Error struct {
	Kind  ErrorKind
	Leg   Leg // set for KindForecastUnavailable only
	Query string
	Err   error
}

// NewError builds an Error of the given kind wrapping cause.
func NewError(kind ErrorKind, query string, cause error) *Error {
	return &Error{Kind: kind, Query: query, Err: cause}
}

// NewLegError builds a KindForecastUnavailable error for the failed leg.
func NewLegError(leg Leg, cause error) *Error {
	return &Error{Kind: KindForecastUnavailable, Leg: leg, Err: cause}
}

// Error returns the message shown to the user.
func (e *Error) Error() string {
	switch e.Kind {
	case KindEmptyQuery:
		return "Please enter a city name."
	case KindGeocodeNotFound:
		if e.Query != "" {
			return fmt.Sprintf("Could not find a place called %q.", e.Query)
		}
		return "Could not find that place."
	case KindNetwork:
		return "Could not reach the weather service. Please try again."
	case KindForecastUnavailable:
		if e.Leg == LegPrecipitation {
			return "The rainfall forecast is unavailable right now. Please try again."
		}
		return "Current conditions are unavailable right now. Please try again."
	default:
		return "Could not fetch data. Please try again."
	}
}

// Detail returns the message followed by the underlying cause, for logs.
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindEmptyQuery:
		return ErrEmptyQuery
	case KindGeocodeNotFound:
		return ErrGeocodeNotFound
	case KindNetwork:
		return ErrNetwork
	case KindForecastUnavailable:
		return ErrForecastUnavailable
	}
	return nil
}

// AsError extracts an *Error from err, classifying anything else as a
// network failure.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindNetwork, "", err)
}
