package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/i474232898/weather-now/internal/weather"
)

// DefaultIPAPIURL is the ip-api.com lookup for the caller's public address.
const DefaultIPAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPLocator resolves the host's position from its public IP address using
// an ip-api.com compatible endpoint.
type IPLocator struct {
	client  *http.Client
	url     string
	timeout time.Duration

	maxRetries      uint64
	initialInterval time.Duration
}

// NewIPLocator creates an IPLocator. An empty url selects DefaultIPAPIURL;
// timeout bounds the whole lookup including retries.
func NewIPLocator(client *http.Client, url string, timeout time.Duration) *IPLocator {
	if url == "" {
		url = DefaultIPAPIURL
	}
	return &IPLocator{
		client:          client,
		url:             url,
		timeout:         timeout,
		maxRetries:      2,
		initialInterval: 500 * time.Millisecond,
	}
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// Locate looks up the current position. Server errors and rate limiting are
// retried with exponential backoff; rejections are returned immediately.
func (l *IPLocator) Locate(ctx context.Context) (weather.Coordinate, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var coord weather.Coordinate
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}

		resp, err := l.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrDenied, resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode))
		}

		var body ipAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode response: %v", ErrUnavailable, err))
		}
		if body.Status != "success" {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrDenied, body.Message))
		}
		if body.Lat == nil || body.Lon == nil {
			return backoff.Permanent(fmt.Errorf("%w: response has no coordinates", ErrUnavailable))
		}

		coord = weather.Coordinate{Lat: *body.Lat, Lon: *body.Lon}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.initialInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, l.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		if terr := classifyContext(ctx, err); terr != nil {
			return weather.Coordinate{}, terr
		}
		return weather.Coordinate{}, err
	}

	if err := checkCoordinate(coord); err != nil {
		return weather.Coordinate{}, err
	}
	return coord, nil
}
