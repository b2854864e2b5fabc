package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-sync/internal/weather"
)

func ptr(f float64) *float64 { return &f }

func sevenDayPayload() string {
	var entries []string
	for i := 0; i < 7; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"dt":%d,"temp":{"day":15,"min":%d,"max":%d},"pressure":1012.5,"humidity":70,"weather":[{"id":%d,"main":"Rain"}],"speed":3.5,"deg":220}`,
			1700000000+i*86400, 10+i, 20+i, 500+i))
	}
	return `{"cod":"200","message":0,"cnt":7,"list":[` + strings.Join(entries, ",") + `]}`
}

func TestRequestURL(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{APIKey: "k", BaseURL: "http://example.test/daily", Days: 7})

	t.Run("coordinates preferred", func(t *testing.T) {
		u, err := p.RequestURL(weather.Location{Query: "Berlin,DE", Lat: ptr(52.52), Lon: ptr(13.405)})
		require.NoError(t, err)
		assert.Contains(t, u, "lat=52.52")
		assert.Contains(t, u, "lon=13.405")
		assert.NotContains(t, u, "q=")
		assert.Contains(t, u, "cnt=7")
		assert.Contains(t, u, "units=metric")
		assert.Contains(t, u, "appid=k")
	})

	t.Run("out of range coordinates fall back to place name", func(t *testing.T) {
		u, err := p.RequestURL(weather.Location{Query: "Berlin,DE", Lat: ptr(123), Lon: ptr(13)})
		require.NoError(t, err)
		assert.Contains(t, u, "q=Berlin%2CDE")
		assert.NotContains(t, u, "lat=")
	})

	t.Run("no location", func(t *testing.T) {
		_, err := p.RequestURL(weather.Location{})
		require.Error(t, err)
	})

	t.Run("deterministic", func(t *testing.T) {
		loc := weather.Location{Query: "Paris,FR"}
		a, err := p.RequestURL(loc)
		require.NoError(t, err)
		b, err := p.RequestURL(loc)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestFetch(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Paris,FR", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sevenDayPayload()))
	}))
	defer server.Close()

	p := NewOpenWeatherProvider(server.Client(), OpenWeatherConfig{BaseURL: server.URL, Days: 7})
	body, err := p.Fetch(context.Background(), weather.Location{Query: "Paris,FR"}, weather.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, sevenDayPayload(), string(body))
	assert.Equal(t, 1, calls)
}

func TestFetchNonSuccessIsNetworkError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(status)
			}))
			defer server.Close()

			p := NewOpenWeatherProvider(server.Client(), OpenWeatherConfig{BaseURL: server.URL})
			_, err := p.Fetch(context.Background(), weather.Location{Query: "x"}, weather.UnitsMetric)
			require.Error(t, err)
			assert.Equal(t, weather.KindNetwork, weather.KindOf(err))
			assert.Equal(t, 1, calls, "no retry inside the fetcher")
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	p := NewOpenWeatherProvider(client, OpenWeatherConfig{BaseURL: server.URL})
	_, err := p.Fetch(context.Background(), weather.Location{Query: "x"}, weather.UnitsMetric)
	require.Error(t, err)
	assert.Equal(t, weather.KindNetwork, weather.KindOf(err))
}

func TestFetchErrorOmitsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL + "/forecast"
	server.Close()

	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{APIKey: "SUPERSECRETKEY", BaseURL: baseURL})
	_, err := p.Fetch(context.Background(), weather.Location{Query: "Berlin"}, weather.UnitsMetric)
	require.Error(t, err)
	assert.Equal(t, weather.KindNetwork, weather.KindOf(err))
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
	assert.Contains(t, err.Error(), "appid=REDACTED")
	assert.Contains(t, err.Error(), "q=Berlin")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "http://x.test/f?appid=REDACTED&q=Paris", redactURL("http://x.test/f?appid=abc&q=Paris"))
	assert.Equal(t, "http://x.test/f?key=REDACTED", redactURL("http://x.test/f?key=abc"))
	assert.Equal(t, "http://x.test/f", redactURL("http://x.test/f"))
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sevenDayPayload()))
	}))
	defer server.Close()

	p := NewOpenWeatherProvider(server.Client(), OpenWeatherConfig{BaseURL: server.URL})
	p.httpCfg.MaxBodyBytes = 64
	_, err := p.Fetch(context.Background(), weather.Location{Query: "x"}, weather.UnitsMetric)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBodyTooLarge))
	assert.Equal(t, weather.KindNetwork, weather.KindOf(err))

	p.httpCfg.MaxBodyBytes = int64(len(sevenDayPayload()))
	body, err := p.Fetch(context.Background(), weather.Location{Query: "x"}, weather.UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, sevenDayPayload(), string(body))
}

func TestFetchWithoutLocation(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{})
	_, err := p.Fetch(context.Background(), weather.Location{}, weather.UnitsMetric)
	require.Error(t, err)
	assert.Equal(t, weather.KindUnexpected, weather.KindOf(err))
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOpenWeatherProvider(server.Client(), OpenWeatherConfig{BaseURL: server.URL})
	var err error
	for i := 0; i < 7; i++ {
		_, err = p.Fetch(context.Background(), weather.Location{Query: "x"}, weather.UnitsMetric)
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, errCircuitOpen))
}

func TestNormalize(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{})
	today := time.Date(2024, 3, 10, 15, 45, 0, 0, time.UTC)

	records := p.Normalize([]byte(sevenDayPayload()), today, weather.UnitsMetric)
	require.Len(t, records, 7)
	for i, r := range records {
		assert.Equal(t, time.Date(2024, 3, 10+i, 0, 0, 0, 0, time.UTC), r.Date)
		assert.Equal(t, 500+i, r.WeatherID)
		assert.Equal(t, float64(20+i), r.MaxTemp)
		assert.Equal(t, float64(10+i), r.MinTemp)
		assert.Equal(t, 70.0, r.Humidity)
		assert.Equal(t, 1012.5, r.Pressure)
		assert.Equal(t, 3.5, r.WindSpeed)
		assert.Equal(t, 220.0, r.WindDegrees)
	}
}

func TestNormalizeImperial(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{})
	raw := `{"cod":200,"list":[{"temp":{"min":0,"max":100},"weather":[{"id":800}]}]}`

	records := p.Normalize([]byte(raw), time.Now(), weather.UnitsImperial)
	require.Len(t, records, 1)
	assert.InDelta(t, 212.0, records[0].MaxTemp, 1e-9)
	assert.InDelta(t, 32.0, records[0].MinTemp, 1e-9)
}

func TestNormalizeUnknownCondition(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{})
	raw := `{"list":[{"temp":{"min":1,"max":2},"weather":[{"id":999}]}]}`

	records := p.Normalize([]byte(raw), time.Now(), weather.UnitsMetric)
	require.Len(t, records, 1)
	assert.Equal(t, weather.ConditionUnknownID, records[0].WeatherID)
}

func TestNormalizeReturnsEmpty(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{})
	cases := map[string]string{
		"error envelope string": `{"cod":"404","message":"city not found"}`,
		"error envelope number": `{"cod":401,"message":"invalid key","list":[{"temp":{"min":1,"max":2},"weather":[{"id":800}]}]}`,
		"unreadable code":       `{"cod":"abc","list":[]}`,
		"not json":              `<html>oops</html>`,
		"missing list":          `{"cod":"200"}`,
		"empty list":            `{"cod":"200","list":[]}`,
		"list wrong shape":      `{"cod":"200","list":{"a":1}}`,
		"missing max":           `{"cod":"200","list":[{"temp":{"min":1},"weather":[{"id":800}]}]}`,
		"missing weather":       `{"cod":"200","list":[{"temp":{"min":1,"max":2},"weather":[]}]}`,
		"missing weather id":    `{"cod":"200","list":[{"temp":{"min":1,"max":2},"weather":[{"main":"Clear"}]}]}`,
		"missing temp":          `{"cod":"200","list":[{"weather":[{"id":800}]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, p.Normalize([]byte(raw), time.Now(), weather.UnitsMetric))
		})
	}
}
