package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/weather"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, SourceIP, cfg.LocationSource)
	assert.Equal(t, weather.Coordinate{Lat: 28.67, Lon: 77.22}, cfg.Fallback)
	assert.Equal(t, 144, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("LOCATION_SOURCE", "static")
	t.Setenv("STATIC_LAT", "51.5074")
	t.Setenv("STATIC_LON", "-0.1278")
	t.Setenv("FALLBACK_LAT", "0")
	t.Setenv("FALLBACK_LON", "0")
	t.Setenv("OPENWEATHER_BASE_URL", "http://localhost:9000/data/2.5/")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, weather.Coordinate{Lat: 51.5074, Lon: -0.1278}, cfg.Static)
	assert.Equal(t, weather.Coordinate{}, cfg.Fallback)
	assert.Equal(t, "http://localhost:9000/data/2.5/", cfg.OpenWeatherBaseURL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad interval", map[string]string{"POLL_INTERVAL": "soon"}, "POLL_INTERVAL"},
		{"zero interval", map[string]string{"POLL_INTERVAL": "0s"}, "PollInterval"},
		{"unknown source", map[string]string{"LOCATION_SOURCE": "gps"}, "LocationSource"},
		{"fallback out of range", map[string]string{"FALLBACK_LAT": "91"}, "Lat"},
		{"bad static lon", map[string]string{"LOCATION_SOURCE": "static", "STATIC_LAT": "1", "STATIC_LON": "east"}, "STATIC_LON"},
		{"address without key", map[string]string{"LOCATION_SOURCE": "address", "LOCATION_CITY": "Paris"}, "GeocoderAPIKey"},
		{"address without place", map[string]string{"LOCATION_SOURCE": "address", "GEOCODER_API_KEY": "k"}, "LOCATION_CITY"},
		{"bad max history", map[string]string{"STORE_MAX_HISTORY": "lots"}, "invalid STORE_MAX_HISTORY"},
		{"negative max history", map[string]string{"STORE_MAX_HISTORY": "-1"}, "StoreMaxHistory"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LogFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
