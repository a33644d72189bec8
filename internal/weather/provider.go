package weather

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultFetchErrorMessage is used when a non-2xx response carries no message.
	DefaultFetchErrorMessage = "Failed to fetch weather data"
	// GenericErrorMessage is used when a transport or parse error has no text.
	GenericErrorMessage = "Something went wrong"
)

// FetchError is the single error type a Fetcher returns. Message is safe to
// show to the user.
type FetchError struct {
	Status  int // HTTP status, 0 for transport and decode failures
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError converts any error into a FetchError carrying its message.
func NewFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	msg := GenericErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &FetchError{Message: msg, Err: err}
}

// Fetcher abstracts a current-conditions source (e.g. OpenWeatherMap).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, coord Coordinate) (Conditions, error)
}

// Store is the contract the snapshot history must satisfy.
type Store interface {
	SaveSnapshot(coord Coordinate, snapshot WeatherSnapshot)
	GetLatest(coord Coordinate) (WeatherSnapshot, error)
	GetRange(coord Coordinate, from, to time.Time) ([]WeatherSnapshot, error)
}
