package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-sync/internal/logfields"
	"github.com/i474232898/forecast-sync/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap daily forecast endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/forecast/daily"

// DefaultForecastDays is the forecast horizon requested when none is configured.
const DefaultForecastDays = 14

// OpenWeatherConfig configures an OpenWeatherProvider.
type OpenWeatherConfig struct {
	APIKey    string
	BaseURL   string
	Days      int
	UserAgent string
}

// OpenWeatherProvider implements weather.Provider for the OpenWeatherMap daily forecast.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	days := cfg.Days
	if days <= 0 {
		days = DefaultForecastDays
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		days:    days,
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: cfg.UserAgent,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// RequestURL builds the forecast URL for loc. Coordinates are preferred;
// the place-name query is the fallback. The provider is always asked for
// metric values, conversion happens in Normalize.
func (p *OpenWeatherProvider) RequestURL(loc weather.Location) (string, error) {
	values := url.Values{}
	switch {
	case loc.HasCoordinates():
		values.Set("lat", strconv.FormatFloat(*loc.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(*loc.Lon, 'f', -1, 64))
	case strings.TrimSpace(loc.Query) != "":
		values.Set("q", strings.TrimSpace(loc.Query))
	default:
		return "", fmt.Errorf("location has neither valid coordinates nor a place name")
	}
	values.Set("mode", "json")
	values.Set("units", string(weather.UnitsMetric))
	values.Set("cnt", strconv.Itoa(p.days))
	if p.apiKey != "" {
		values.Set("appid", p.apiKey)
	}

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Fetch performs a single request for the forecast of loc.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location, _ weather.Units) ([]byte, error) {
	target, err := p.RequestURL(loc)
	if err != nil {
		return nil, weather.NewError(weather.KindUnexpected, "build request url", err)
	}

	body, err := doRequest(ctx, p.httpCfg, p.circuit, target)
	if err != nil {
		return nil, weather.NewError(weather.KindNetwork, "fetch forecast", err)
	}

	slog.Debug("Fetched forecast",
		logfields.Provider(p.name),
		logfields.Location(loc.Key()),
		slog.Int("bytes", len(body)))
	return body, nil
}

type forecastPayload struct {
	Cod  json.RawMessage  `json:"cod"`
	List *[]forecastEntry `json:"list"`
}

type forecastEntry struct {
	Dt   int64 `json:"dt"`
	Temp *struct {
		Max *float64 `json:"max"`
		Min *float64 `json:"min"`
	} `json:"temp"`
	Pressure float64 `json:"pressure"`
	Humidity float64 `json:"humidity"`
	Speed    float64 `json:"speed"`
	Deg      float64 `json:"deg"`
	Weather  []struct {
		ID *int `json:"id"`
	} `json:"weather"`
}

// Normalize parses an OpenWeatherMap daily forecast. Entry i is dated
// today+i days; the payload's own timestamps are ignored. Error envelopes
// and malformed payloads yield nil.
func (p *OpenWeatherProvider) Normalize(raw []byte, today time.Time, units weather.Units) []weather.Record {
	var payload forecastPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		slog.Warn("Discarding malformed forecast payload", logfields.Provider(p.name), logfields.Error(err))
		return nil
	}

	code, ok := parseCode(payload.Cod)
	if !ok {
		slog.Warn("Discarding forecast payload with unreadable status code", logfields.Provider(p.name))
		return nil
	}
	switch code {
	case http.StatusOK:
	case http.StatusNotFound:
		slog.Warn("Forecast provider reported an invalid location", logfields.Provider(p.name))
		return nil
	default:
		slog.Warn("Forecast provider returned an error envelope",
			logfields.Provider(p.name), logfields.Status(code))
		return nil
	}

	if payload.List == nil {
		slog.Warn("Discarding forecast payload without a list", logfields.Provider(p.name))
		return nil
	}
	entries := *payload.List
	if len(entries) == 0 {
		return nil
	}

	day := weather.NormalizeDate(today)
	records := make([]weather.Record, 0, len(entries))
	for i, e := range entries {
		if e.Temp == nil || e.Temp.Max == nil || e.Temp.Min == nil || len(e.Weather) == 0 || e.Weather[0].ID == nil {
			slog.Warn("Discarding forecast payload with incomplete entry",
				logfields.Provider(p.name), slog.Int("entry", i))
			return nil
		}

		maxTemp, minTemp := *e.Temp.Max, *e.Temp.Min
		if units == weather.UnitsImperial {
			maxTemp = weather.CelsiusToFahrenheit(maxTemp)
			minTemp = weather.CelsiusToFahrenheit(minTemp)
		}

		records = append(records, weather.Record{
			Date:        day.AddDate(0, 0, i),
			WeatherID:   weather.ConditionID(*e.Weather[0].ID),
			MaxTemp:     maxTemp,
			MinTemp:     minTemp,
			Humidity:    e.Humidity,
			Pressure:    e.Pressure,
			WindSpeed:   e.Speed,
			WindDegrees: e.Deg,
		})
	}
	return records
}

// parseCode reads the envelope status, which the provider sends either as a
// number or as a numeric string. An absent code counts as success.
func parseCode(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return http.StatusOK, true
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
