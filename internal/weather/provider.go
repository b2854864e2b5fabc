package weather

import (
	"context"
	"time"
)

// Fetcher retrieves the raw forecast payload for a location.
// Implementations perform exactly one request per call.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, loc Location, units Units) ([]byte, error)
}

// Normalizer turns a raw provider payload into forecast records. It never
// fails: error envelopes and malformed payloads yield an empty result.
type Normalizer interface {
	Normalize(raw []byte, today time.Time, units Units) []Record
}

// Provider is a forecast source that can both fetch and normalize its payload.
type Provider interface {
	Fetcher
	Normalizer
}

// Store is the contract the forecast stores must satisfy.
type Store interface {
	// ReplaceAll deletes every stored record and inserts records in their place.
	ReplaceAll(ctx context.Context, records []Record) error
	// QueryToday returns the projection of the record dated today, if any.
	QueryToday(ctx context.Context, today time.Time) (Summary, bool, error)
	// List returns all stored records ordered by date.
	List(ctx context.Context) ([]Record, error)
}

// Preferences exposes the user settings a run reads, and the
// last-notified timestamp it advances.
type Preferences interface {
	Location(ctx context.Context) (Location, error)
	Units(ctx context.Context) (Units, error)
	NotificationsEnabled(ctx context.Context) (bool, error)
	LastNotifiedAt(ctx context.Context) (time.Time, error)
	RecordNotified(ctx context.Context, at time.Time) error
}

// Notification is what the user-facing notifier receives.
// Summary is nil when today's record was not found.
type Notification struct {
	Summary *Summary
	Units   Units
}

// Notifier presents a forecast notification to the user.
type Notifier interface {
	NotifyUser(ctx context.Context, n Notification) error
}

// DeviceSummary is handed off to a secondary device.
type DeviceSummary struct {
	Condition string  `json:"condition"`
	Icon      string  `json:"icon"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Units     Units   `json:"units"`
}

// DeviceSink receives today's summary on a best-effort basis.
type DeviceSink interface {
	Send(ctx context.Context, s DeviceSummary) error
}

// Recorder observes sync outcomes.
type Recorder interface {
	ObserveSync(state State, kind ErrorKind, d time.Duration)
	SetStoredRecords(n int)
	IncNotifications()
	IncDeviceSendFailures()
}

type nopRecorder struct{}

func (nopRecorder) ObserveSync(State, ErrorKind, time.Duration) {}
func (nopRecorder) SetStoredRecords(int)                        {}
func (nopRecorder) IncNotifications()                           {}
func (nopRecorder) IncDeviceSendFailures()                      {}
