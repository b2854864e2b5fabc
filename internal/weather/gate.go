package weather

import "time"

// NotifyInterval is the minimum time between two forecast notifications.
const NotifyInterval = 24 * time.Hour

// ShouldNotify decides whether this run may notify the user. It fires only when
// notifications are enabled and at least NotifyInterval has elapsed since the
// last notification, so a refresh shortly after midnight does not notify twice.
func ShouldNotify(now, lastNotifiedAt time.Time, enabled bool) bool {
	if !enabled {
		return false
	}
	return now.Sub(lastNotifiedAt) >= NotifyInterval
}
