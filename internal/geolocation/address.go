package geolocation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-now/internal/weather"
)

// AddressLocator forward-geocodes a fixed address through the Google
// Geocoding API.
type AddressLocator struct {
	address geocoder.Address
	timeout time.Duration
	geocode func(geocoder.Address) (geocoder.Location, error)
}

// NewAddressLocator creates a locator for city/country. The geocoder package
// keeps its API key globally, so the key is installed here.
func NewAddressLocator(apiKey, city, country string, timeout time.Duration) *AddressLocator {
	geocoder.ApiKey = apiKey
	return &AddressLocator{
		address: geocoder.Address{City: city, Country: country},
		timeout: timeout,
		geocode: geocoder.Geocoding,
	}
}

type geocodeResult struct {
	loc geocoder.Location
	err error
}

// Locate geocodes the configured address. The geocoder client is not
// context-aware, so a timed-out lookup is abandoned rather than cancelled.
func (l *AddressLocator) Locate(ctx context.Context) (weather.Coordinate, error) {
	if l.address.City == "" && l.address.Country == "" {
		return weather.Coordinate{}, fmt.Errorf("%w: no address configured", ErrUnavailable)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	done := make(chan geocodeResult, 1)
	go func() {
		loc, err := l.geocode(l.address)
		done <- geocodeResult{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		if terr := classifyContext(ctx, ctx.Err()); terr != nil {
			return weather.Coordinate{}, terr
		}
		return weather.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return weather.Coordinate{}, classifyGeocodeError(res.err)
		}
		coord := weather.Coordinate{Lat: res.loc.Latitude, Lon: res.loc.Longitude}
		if err := checkCoordinate(coord); err != nil {
			return weather.Coordinate{}, err
		}
		return coord, nil
	}
}

func classifyGeocodeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "REQUEST_DENIED") || strings.Contains(msg, "ZERO_RESULTS") {
		return fmt.Errorf("%w: %s", ErrDenied, msg)
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, msg)
}
