// Package notify holds the sinks a sync run reports to: the user-facing
// notification and the secondary-device hand-off.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/i474232898/forecast-sync/internal/weather"
)

// Message is a rendered user notification.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

// Render builds the notification text for n.
func Render(n weather.Notification) Message {
	if n.Summary == nil {
		return Message{
			Title: "Forecast updated",
			Body:  "New forecast data is available.",
			Icon:  weather.ConditionIcon(weather.ConditionUnknownID),
		}
	}
	s := n.Summary
	return Message{
		Title: fmt.Sprintf("Today: %s", s.Description()),
		Body: fmt.Sprintf("Forecast: %s - High: %s Low: %s",
			s.Description(),
			weather.FormatTemperature(s.MaxTemp, n.Units),
			weather.FormatTemperature(s.MinTemp, n.Units)),
		Icon: weather.ConditionIcon(s.WeatherID),
	}
}

// LogNotifier presents notifications as structured log lines and keeps
// the latest one for the HTTP API.
type LogNotifier struct {
	logger *slog.Logger

	mu     sync.RWMutex
	latest *Message
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyUser(ctx context.Context, note weather.Notification) error {
	msg := Render(note)
	n.logger.InfoContext(ctx, "Forecast notification",
		slog.String("title", msg.Title),
		slog.String("body", msg.Body),
		slog.String("icon", msg.Icon))

	n.mu.Lock()
	n.latest = &msg
	n.mu.Unlock()
	return nil
}

// Latest returns the most recently shown notification.
func (n *LogNotifier) Latest() (Message, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.latest == nil {
		return Message{}, false
	}
	return *n.latest, true
}

// NopDeviceSink drops device summaries. Used when no device transport is configured.
type NopDeviceSink struct{}

func (NopDeviceSink) Send(context.Context, weather.DeviceSummary) error { return nil }
