package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyState      = "state"
	KeyKind       = "error_kind"
	KeyRecords    = "records"
	KeyDurationMS = "duration_ms"
	KeyProvider   = "provider"
	KeyLocation   = "location"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Records(n int) slog.Attr         { return slog.Int(KeyRecords, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Location(l string) slog.Attr     { return slog.String(KeyLocation, l) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
