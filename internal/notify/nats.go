package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/i474232898/forecast-sync/internal/logfields"
	"github.com/i474232898/forecast-sync/internal/weather"
)

// DefaultSubject is the NATS subject device summaries are published on.
const DefaultSubject = "forecast.today"

type publisher interface {
	Publish(subject string, data []byte) error
}

type devicePayload struct {
	weather.DeviceSummary
	SentAt time.Time `json:"sentAt"`
}

// NATSDeviceSink publishes today's summary for a secondary device to pick up.
type NATSDeviceSink struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	now     func() time.Time
}

// NewNATSDeviceSink connects to url and publishes on subject.
func NewNATSDeviceSink(url, subject string) (*NATSDeviceSink, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("forecast-sync"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS device sink initialized",
		logfields.URL(url),
		logfields.Subject(subject))

	return &NATSDeviceSink{conn: conn, pub: conn, subject: subject, now: time.Now}, nil
}

// Send publishes s. Delivery is best effort; the caller only logs failures.
func (d *NATSDeviceSink) Send(ctx context.Context, s weather.DeviceSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(devicePayload{DeviceSummary: s, SentAt: d.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal device summary: %w", err)
	}
	if err := d.pub.Publish(d.subject, data); err != nil {
		return fmt.Errorf("failed to publish device summary: %w", err)
	}

	slog.Debug("Published device summary",
		logfields.Subject(d.subject),
		slog.String("condition", s.Condition))
	return nil
}

// Close drains and closes the NATS connection.
func (d *NATSDeviceSink) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Drain()
}
