package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-sync/internal/weather"
)

func TestRender(t *testing.T) {
	msg := Render(weather.Notification{
		Summary: &weather.Summary{WeatherID: 500, MaxTemp: 21.6, MinTemp: 12.2},
		Units:   weather.UnitsMetric,
	})
	assert.Equal(t, "Today: Light rain", msg.Title)
	assert.Equal(t, "Forecast: Light rain - High: 22°C Low: 12°C", msg.Body)
	assert.Equal(t, "ic_rain", msg.Icon)
}

func TestRenderImperial(t *testing.T) {
	msg := Render(weather.Notification{
		Summary: &weather.Summary{WeatherID: 800, MaxTemp: 71, MinTemp: 54},
		Units:   weather.UnitsImperial,
	})
	assert.Equal(t, "Forecast: Clear - High: 71°F Low: 54°F", msg.Body)
}

func TestRenderWithoutSummary(t *testing.T) {
	msg := Render(weather.Notification{Units: weather.UnitsMetric})
	assert.Equal(t, "Forecast updated", msg.Title)
	assert.Equal(t, "ic_unknown", msg.Icon)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	_, ok := n.Latest()
	assert.False(t, ok)

	require.NoError(t, n.NotifyUser(context.Background(), weather.Notification{
		Summary: &weather.Summary{WeatherID: 801, MaxTemp: 18, MinTemp: 9},
		Units:   weather.UnitsMetric,
	}))

	latest, ok := n.Latest()
	require.True(t, ok)
	assert.Equal(t, "Today: Mostly clear", latest.Title)
	assert.Contains(t, buf.String(), "Forecast notification")
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestNATSDeviceSinkSend(t *testing.T) {
	pub := &fakePublisher{}
	sentAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	sink := &NATSDeviceSink{pub: pub, subject: DefaultSubject, now: func() time.Time { return sentAt }}

	err := sink.Send(context.Background(), weather.DeviceSummary{
		Condition: "Clear", Icon: "ic_clear", High: 25, Low: 14, Units: weather.UnitsMetric,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, pub.subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "Clear", got["condition"])
	assert.Equal(t, "ic_clear", got["icon"])
	assert.Equal(t, 25.0, got["high"])
	assert.Equal(t, 14.0, got["low"])
	assert.Equal(t, "metric", got["units"])
	assert.Equal(t, "2024-06-01T08:00:00Z", got["sentAt"])
}

func TestNATSDeviceSinkPublishError(t *testing.T) {
	sink := &NATSDeviceSink{pub: &fakePublisher{err: errors.New("nats: connection closed")}, subject: "x", now: time.Now}
	err := sink.Send(context.Background(), weather.DeviceSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}

func TestNATSDeviceSinkCanceledContext(t *testing.T) {
	pub := &fakePublisher{}
	sink := &NATSDeviceSink{pub: pub, subject: "x", now: time.Now}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, sink.Send(ctx, weather.DeviceSummary{}), context.Canceled)
	assert.Nil(t, pub.data)
}
