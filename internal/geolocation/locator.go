// Package geolocation resolves the coordinate the widget reports weather for.
//
// Locators stand in for a platform location service. Their failures are
// reported through ErrUnavailable, ErrDenied and ErrTimeout so that callers
// can recover with a fallback coordinate instead of surfacing the raw error.
package geolocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-now/internal/weather"
)

var (
	// ErrUnavailable means the location source could not be reached or is not configured.
	ErrUnavailable = errors.New("geolocation unavailable")
	// ErrDenied means the location source refused to resolve a position.
	ErrDenied = errors.New("geolocation denied")
	// ErrTimeout means no position arrived before the deadline.
	ErrTimeout = errors.New("geolocation timed out")
)

var validate = validator.New()

// Locator obtains the current coordinate.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinate, error)
}

// StaticLocator always reports the same configured coordinate.
type StaticLocator struct {
	Coord weather.Coordinate
}

func (l StaticLocator) Locate(_ context.Context) (weather.Coordinate, error) {
	if err := checkCoordinate(l.Coord); err != nil {
		return weather.Coordinate{}, err
	}
	return l.Coord, nil
}

// Reason classifies a Locate error for logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDenied):
		return "denied"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func checkCoordinate(c weather.Coordinate) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: invalid coordinate %s: %v", ErrUnavailable, c, err)
	}
	return nil
}

// classifyContext maps a context failure onto the error taxonomy.
func classifyContext(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return nil
}
