package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/forecast-sync/internal/notify"
	"github.com/i474232898/forecast-sync/internal/store"
	"github.com/i474232898/forecast-sync/internal/weather"
	"github.com/i474232898/forecast-sync/internal/weather/providers"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// Location seeds the stored preference on first start.
	LocationQuery string
	Lat           *float64 `validate:"omitempty,latitude"`
	Lon           *float64 `validate:"omitempty,longitude"`
	Units         string   `validate:"oneof=metric imperial"`

	NotificationsEnabled bool

	// ForecastDays is the horizon requested from the provider.
	ForecastDays int `validate:"min=1,max=16"`

	// SyncInterval controls how often the forecast is refreshed.
	SyncInterval time.Duration `validate:"min=1m"`
	HTTPTimeout  time.Duration `validate:"min=1s"`

	DBPath string `validate:"required"`

	// NATSURL enables the device hand-off when set.
	NATSURL     string `validate:"omitempty,url"`
	NATSSubject string `validate:"required"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found or error loading it", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", providers.DefaultOpenWeatherURL)

	cfg.LocationQuery = strings.TrimSpace(os.Getenv("WEATHER_LOCATION"))
	lat, err := getenvFloat("WEATHER_LAT")
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("WEATHER_LON")
	if err != nil {
		return nil, err
	}
	cfg.Lat, cfg.Lon = lat, lon
	cfg.Units = strings.ToLower(getenvDefault("WEATHER_UNITS", "metric"))

	enabled, err := strconv.ParseBool(getenvDefault("NOTIFICATIONS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATIONS_ENABLED: %w", err)
	}
	cfg.NotificationsEnabled = enabled

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", providers.DefaultForecastDays)

	// Sync interval: default 3 hours.
	if cfg.SyncInterval, err = getenvDuration("SYNC_INTERVAL", "3h"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}

	cfg.DBPath = getenvDefault("DB_PATH", store.DefaultDBPath())
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubject = getenvDefault("NATS_SUBJECT", notify.DefaultSubject)
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that some location is configured.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.Lat == nil) != (c.Lon == nil) {
		return fmt.Errorf("WEATHER_LAT and WEATHER_LON must be set together")
	}
	if c.Lat == nil && c.LocationQuery == "" {
		return fmt.Errorf("either WEATHER_LOCATION or WEATHER_LAT/WEATHER_LON must be set")
	}
	return nil
}

// Location returns the configured forecast location.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{Query: c.LocationQuery, Lat: c.Lat, Lon: c.Lon}
}

// SlogLevel maps LogLevel onto a slog level.
func (c *AppConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
