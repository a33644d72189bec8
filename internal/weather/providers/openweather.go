package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-now/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/"

// OpenWeatherProvider implements the weather.Fetcher interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects the
// public API; timeout bounds each fetch (0 disables the bound).
func NewOpenWeatherProvider(client *http.Client, baseURL, apiKey string, timeout time.Duration) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		timeout: timeout,
		client:  client,
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch requests current conditions for coord. Every field of the response
// is optional; missing or malformed fields fall back to their sentinels
// instead of failing the fetch.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, coord weather.Coordinate) (weather.Conditions, error) {
	if p.apiKey == "" {
		return weather.Conditions{}, &weather.FetchError{Message: "openweather api key is not configured"}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequest(http.MethodGet, p.requestURL(coord), nil)
	if err != nil {
		return weather.Conditions{}, weather.NewFetchError(err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Conditions{}, weather.NewFetchError(err)
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Conditions{}, weather.NewFetchError(fmt.Errorf("decode weather response: %w", err))
	}

	return payload.conditions(), nil
}

func (p *OpenWeatherProvider) requestURL(coord weather.Coordinate) string {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	values.Set("units", "metric")
	values.Set("APPID", p.apiKey)
	return fmt.Sprintf("%sweather?%s", p.baseURL, values.Encode())
}

// openWeatherPayload defers decoding of each section. Fields inside a
// section are decoded one by one as well, so a malformed sibling never
// hides a usable value.
type openWeatherPayload struct {
	Main    json.RawMessage `json:"main"`
	Weather json.RawMessage `json:"weather"`
	Name    json.RawMessage `json:"name"`
	Sys     json.RawMessage `json:"sys"`
}

func (p openWeatherPayload) conditions() weather.Conditions {
	out := weather.Conditions{
		City:      weather.Unknown,
		Country:   weather.Unknown,
		Condition: weather.Unknown,
	}

	main := objectFields(p.Main)

	var temp float64
	if decodeOptional(main["temp"], &temp) {
		c := roundHalfUp(temp)
		f := roundHalfUp(temp*1.8 + 32)
		out.TemperatureC = &c
		out.TemperatureF = &f
	}

	var humidity float64
	if decodeOptional(main["humidity"], &humidity) {
		out.Humidity = weather.HumidityOf(humidity)
	}

	// Only the first entry describes the primary condition.
	var items []json.RawMessage
	if decodeOptional(p.Weather, &items) && len(items) > 0 {
		if cond := optionalString(objectFields(items[0])["main"]); cond != "" {
			out.Condition = cond
		}
	}

	if name := optionalString(p.Name); name != "" {
		out.City = name
	}

	if country := optionalString(objectFields(p.Sys)["country"]); country != "" {
		out.Country = country
	}

	return out
}

// objectFields splits a JSON object into its raw fields. Anything that is
// not an object yields nil, and lookups on nil report absent.
func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if !decodeOptional(raw, &fields) {
		return nil
	}
	return fields
}

func optionalString(raw json.RawMessage) string {
	var s string
	if !decodeOptional(raw, &s) {
		return ""
	}
	return s
}

// decodeOptional reports whether raw held a non-null value of v's type.
func decodeOptional(raw json.RawMessage, v any) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
