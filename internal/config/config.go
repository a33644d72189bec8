package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-now/internal/weather"
)

// Location sources understood by LOCATION_SOURCE.
const (
	SourceIP      = "ip"
	SourceAddress = "address"
	SourceStatic  = "static"
	SourceNone    = "none"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"omitempty,url"`

	// PollInterval controls how often the weather is re-fetched.
	PollInterval time.Duration `validate:"gt=0"`
	// FetchTimeout bounds a single weather request.
	FetchTimeout time.Duration `validate:"gt=0"`

	LocationSource  string        `validate:"oneof=ip address static none"`
	LocateTimeout   time.Duration `validate:"gt=0"`
	IPAPIURL        string        `validate:"omitempty,url"`
	GeocoderAPIKey  string        `validate:"required_if=LocationSource address"`
	LocationCity    string
	LocationCountry string
	Static          weather.Coordinate
	Fallback        weather.Coordinate

	// In-memory history retention.
	StoreMaxHistory int           `validate:"gte=0"` // max number of snapshots (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of snapshots (0 = unlimited)

	Port            string `validate:"required,numeric"`
	LogLevel        string `validate:"oneof=debug info warn warning error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds and validates configuration from the current environment.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),
		LocationSource:     getenvDefault("LOCATION_SOURCE", SourceIP),
		IPAPIURL:           os.Getenv("IPAPI_URL"),
		GeocoderAPIKey:     os.Getenv("GEOCODER_API_KEY"),
		LocationCity:       os.Getenv("LOCATION_CITY"),
		LocationCountry:    os.Getenv("LOCATION_COUNTRY"),
		Port:               getenvDefault("PORT", "8080"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		LogFormat:          getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	// 24h at 10-minute intervals.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 144); err != nil {
		return nil, err
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"POLL_INTERVAL", "10m", &cfg.PollInterval},
		{"FETCH_TIMEOUT", "10s", &cfg.FetchTimeout},
		{"LOCATE_TIMEOUT", "10s", &cfg.LocateTimeout},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(getenvDefault(d.key, d.def)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	if cfg.Fallback, err = loadCoordinate("FALLBACK_LAT", "FALLBACK_LON", "28.67", "77.22"); err != nil {
		return nil, err
	}
	if cfg.LocationSource == SourceStatic {
		if cfg.Static, err = loadCoordinate("STATIC_LAT", "STATIC_LON", "", ""); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.LocationSource == SourceAddress && cfg.LocationCity == "" && cfg.LocationCountry == "" {
		return nil, fmt.Errorf("LOCATION_SOURCE=address requires LOCATION_CITY or LOCATION_COUNTRY")
	}

	return cfg, nil
}

func loadCoordinate(latKey, lonKey, latDef, lonDef string) (weather.Coordinate, error) {
	lat, err := strconv.ParseFloat(getenvDefault(latKey, latDef), 64)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid %s: %w", latKey, err)
	}
	lon, err := strconv.ParseFloat(getenvDefault(lonKey, lonDef), 64)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid %s: %w", lonKey, err)
	}
	return weather.Coordinate{Lat: lat, Lon: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
