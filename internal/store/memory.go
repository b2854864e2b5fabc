package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/forecast-sync/internal/weather"
)

var (
	// ErrNotFound is returned when no forecast data is stored.
	ErrNotFound = errors.New("no weather data stored")

	// ErrNoRecords is returned when ReplaceAll is called with nothing to insert.
	ErrNoRecords = errors.New("replace requires at least one record")
)

// MemoryStore is a concurrency-safe in-memory forecast store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []weather.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ReplaceAll swaps the stored set for records in one step.
func (s *MemoryStore) ReplaceAll(_ context.Context, records []weather.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	next := make([]weather.Record, len(records))
	copy(next, records)
	seen := make(map[int64]struct{}, len(next))
	for i := range next {
		next[i].Date = weather.NormalizeDate(next[i].Date)
		key := next[i].Date.Unix()
		if _, dup := seen[key]; dup {
			return errDuplicateDate(next[i].Date)
		}
		seen[key] = struct{}{}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Date.Before(next[j].Date) })

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

// QueryToday returns the projection of the record dated today.
func (s *MemoryStore) QueryToday(_ context.Context, today time.Time) (weather.Summary, bool, error) {
	day := weather.NormalizeDate(today)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Date.Equal(day) {
			return weather.Summary{WeatherID: r.WeatherID, MaxTemp: r.MaxTemp, MinTemp: r.MinTemp}, true, nil
		}
	}
	return weather.Summary{}, false, nil
}

// List returns all stored records ordered by date.
func (s *MemoryStore) List(_ context.Context) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, ErrNotFound
	}
	out := make([]weather.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// MemoryPreferences keeps user settings and notification state in memory.
type MemoryPreferences struct {
	mu           sync.RWMutex
	settings     Settings
	lastNotified time.Time
}

// NewMemoryPreferences creates preferences holding settings.
func NewMemoryPreferences(settings Settings) *MemoryPreferences {
	return &MemoryPreferences{settings: settings}
}

func (p *MemoryPreferences) Location(_ context.Context) (weather.Location, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings.Location, nil
}

func (p *MemoryPreferences) Units(_ context.Context) (weather.Units, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.settings.Units == "" {
		return weather.UnitsMetric, nil
	}
	return p.settings.Units, nil
}

func (p *MemoryPreferences) NotificationsEnabled(_ context.Context) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings.NotificationsEnabled, nil
}

func (p *MemoryPreferences) LastNotifiedAt(_ context.Context) (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastNotified, nil
}

// RecordNotified advances the last-notified time; earlier times are ignored.
func (p *MemoryPreferences) RecordNotified(_ context.Context, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if at.After(p.lastNotified) {
		p.lastNotified = at
	}
	return nil
}

func (p *MemoryPreferences) Settings(_ context.Context) (Settings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings, nil
}

func (p *MemoryPreferences) SaveSettings(_ context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
	return nil
}
