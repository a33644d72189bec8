package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-now/internal/weather"
)

// maxErrorBody bounds how much of a non-2xx body is read for its message.
const maxErrorBody = 64 << 10

var errNoHTTPClient = errors.New("http client not configured")

// newBreaker returns a circuit breaker that trips on transport failures and
// 5xx responses. Client errors (4xx) and requests the caller cancelled do
// not count against the upstream.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			var fe *weather.FetchError
			if errors.As(err, &fe) && fe.Status > 0 && fe.Status < http.StatusInternalServerError {
				return true
			}
			return err == nil
		},
	})
}

// doRequest executes a single request through the circuit breaker. There is
// no retry. Non-2xx responses become a *weather.FetchError whose message is
// taken from the body's "message" field when present.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, redactURL(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return nil, &weather.FetchError{
				Status:  resp.StatusCode,
				Message: statusMessage(resp.Body),
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func statusMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&payload); err != nil || payload.Message == "" {
		return weather.DefaultFetchErrorMessage
	}
	return payload.Message
}

// redactURL strips the request URL, which carries the API key, from
// transport errors so they can be shown to users.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("weather request failed: %w", urlErr.Err)
	}
	return err
}
