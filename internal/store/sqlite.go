package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/forecast-sync/internal/weather"
)

// DefaultDBPath is used when no database path is configured.
func DefaultDBPath() string {
	return filepath.Join("data", "forecast-sync.db")
}

// SQLiteStore persists the forecast in SQLite. ReplaceAll runs in a single
// transaction, so a failed insert leaves the previous forecast in place.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (and creates if needed) the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS weather (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date INTEGER NOT NULL,
			weather_id INTEGER NOT NULL,
			max_temp REAL NOT NULL,
			min_temp REAL NOT NULL,
			humidity REAL NOT NULL DEFAULT 0,
			pressure REAL NOT NULL DEFAULT 0,
			wind_speed REAL NOT NULL DEFAULT 0,
			wind_degrees REAL NOT NULL DEFAULT 0
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_weather_date ON weather(date);
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Preferences returns the preference store sharing this database.
func (s *SQLiteStore) Preferences() *SQLitePreferences {
	return &SQLitePreferences{db: s.db}
}

// ReplaceAll deletes every stored record and inserts records, atomically.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []weather.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM weather"); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather (date, weather_id, max_temp, min_temp, humidity, pressure, wind_speed, wind_degrees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		day := weather.NormalizeDate(r.Date)
		if _, err := stmt.ExecContext(ctx,
			day.Unix(), r.WeatherID, r.MaxTemp, r.MinTemp, r.Humidity, r.Pressure, r.WindSpeed, r.WindDegrees,
		); err != nil {
			return fmt.Errorf("insert record for %s: %w", day.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// QueryToday returns {weather_id, max_temp, min_temp} for the row dated today.
func (s *SQLiteStore) QueryToday(ctx context.Context, today time.Time) (weather.Summary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT weather_id, max_temp, min_temp FROM weather WHERE date = ?",
		weather.NormalizeDate(today).Unix(),
	)
	if err != nil {
		return weather.Summary{}, false, fmt.Errorf("query today: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return weather.Summary{}, false, fmt.Errorf("iterate rows: %w", err)
		}
		return weather.Summary{}, false, nil
	}

	var sum weather.Summary
	if err := rows.Scan(&sum.WeatherID, &sum.MaxTemp, &sum.MinTemp); err != nil {
		return weather.Summary{}, false, fmt.Errorf("scan today: %w", err)
	}
	return sum, true, nil
}

// List returns all stored records ordered by date.
func (s *SQLiteStore) List(ctx context.Context) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, weather_id, max_temp, min_temp, humidity, pressure, wind_speed, wind_degrees
		FROM weather ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []weather.Record
	for rows.Next() {
		var (
			r    weather.Record
			date int64
		)
		if err := rows.Scan(&date, &r.WeatherID, &r.MaxTemp, &r.MinTemp, &r.Humidity, &r.Pressure, &r.WindSpeed, &r.WindDegrees); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Date = time.Unix(date, 0).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// SQLitePreferences stores user settings and the last-notified time in the
// preferences key/value table.
type SQLitePreferences struct {
	db *sql.DB
}

const (
	prefLocationQuery        = "location_query"
	prefLocationLat          = "location_lat"
	prefLocationLon          = "location_lon"
	prefUnits                = "units"
	prefNotificationsEnabled = "notifications_enabled"
	prefLastNotifiedAt       = "last_notified_at"
)

func (p *SQLitePreferences) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preference %s: %w", key, err)
	}
	return v, true, nil
}

func (p *SQLitePreferences) Location(ctx context.Context) (weather.Location, error) {
	var loc weather.Location
	q, _, err := p.get(ctx, prefLocationQuery)
	if err != nil {
		return loc, err
	}
	loc.Query = q

	lat, err := p.getFloat(ctx, prefLocationLat)
	if err != nil {
		return loc, err
	}
	lon, err := p.getFloat(ctx, prefLocationLon)
	if err != nil {
		return loc, err
	}
	loc.Lat, loc.Lon = lat, lon
	return loc, nil
}

func (p *SQLitePreferences) getFloat(ctx context.Context, key string) (*float64, error) {
	v, ok, err := p.get(ctx, key)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	f, err := parseFloat(v)
	if err != nil {
		return nil, fmt.Errorf("preference %s: %w", key, err)
	}
	return &f, nil
}

func (p *SQLitePreferences) Units(ctx context.Context) (weather.Units, error) {
	v, ok, err := p.get(ctx, prefUnits)
	if err != nil {
		return "", err
	}
	if !ok {
		return weather.UnitsMetric, nil
	}
	u := weather.Units(v)
	if !u.Valid() {
		return "", fmt.Errorf("stored units %q are invalid", v)
	}
	return u, nil
}

func (p *SQLitePreferences) NotificationsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := p.get(ctx, prefNotificationsEnabled)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return v == "true", nil
}

func (p *SQLitePreferences) LastNotifiedAt(ctx context.Context) (time.Time, error) {
	v, ok, err := p.get(ctx, prefLastNotifiedAt)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := parseInt(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("preference %s: %w", prefLastNotifiedAt, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// RecordNotified advances the last-notified time; earlier times are ignored.
func (p *SQLitePreferences) RecordNotified(ctx context.Context, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
		WHERE CAST(excluded.value AS INTEGER) > CAST(preferences.value AS INTEGER)`,
		prefLastNotifiedAt, formatInt(at.UnixMilli()),
	)
	if err != nil {
		return fmt.Errorf("record notification time: %w", err)
	}
	return nil
}

// Settings returns the current user settings.
func (p *SQLitePreferences) Settings(ctx context.Context) (Settings, error) {
	loc, err := p.Location(ctx)
	if err != nil {
		return Settings{}, err
	}
	units, err := p.Units(ctx)
	if err != nil {
		return Settings{}, err
	}
	enabled, err := p.NotificationsEnabled(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Settings{Location: loc, Units: units, NotificationsEnabled: enabled}, nil
}

// SaveSettings overwrites the user settings.
func (p *SQLitePreferences) SaveSettings(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return p.write(ctx, s, "INSERT OR REPLACE")
}

// Seed stores s for every setting that has no value yet.
func (p *SQLitePreferences) Seed(ctx context.Context, s Settings) error {
	return p.write(ctx, s, "INSERT OR IGNORE")
}

func (p *SQLitePreferences) write(ctx context.Context, s Settings, verb string) error {
	values := map[string]string{
		prefLocationQuery:        s.Location.Query,
		prefLocationLat:          formatOptionalFloat(s.Location.Lat),
		prefLocationLon:          formatOptionalFloat(s.Location.Lon),
		prefUnits:                string(s.Units),
		prefNotificationsEnabled: formatBool(s.NotificationsEnabled),
	}
	if s.Units == "" {
		delete(values, prefUnits)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for k, v := range values {
		if _, err := tx.ExecContext(ctx, verb+" INTO preferences (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write preference %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}
	return nil
}
