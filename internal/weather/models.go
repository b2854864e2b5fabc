package weather

import (
	"fmt"
	"math"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Units is the measurement system temperatures are stored in.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Valid reports whether u is a known unit system.
func (u Units) Valid() bool {
	return u == UnitsMetric || u == UnitsImperial
}

// Location identifies where to fetch the forecast for.
// Coordinates take precedence over Query when both are present and in range.
type Location struct {
	Query string   `json:"query,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether the location carries a usable lat/lon pair.
func (l Location) HasCoordinates() bool {
	if l.Lat == nil || l.Lon == nil {
		return false
	}
	lat, lon := *l.Lat, *l.Lon
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Key returns a canonical string for logging.
func (l Location) Key() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *l.Lat, *l.Lon)
	}
	return l.Query
}

// Record is one forecast day as persisted by the store.
type Record struct {
	Date        time.Time `json:"date"` // UTC midnight
	WeatherID   int       `json:"weatherId"`
	MaxTemp     float64   `json:"maxTemp"`
	MinTemp     float64   `json:"minTemp"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDegrees float64   `json:"windDegrees"`
}

// Summary is the projection of today's record used for notifications
// and the secondary-device hand-off.
type Summary struct {
	WeatherID int     `json:"weatherId"`
	MaxTemp   float64 `json:"maxTemp"`
	MinTemp   float64 `json:"minTemp"`
}

// Condition returns the summary's condition category.
func (s Summary) Condition() Condition {
	return ConditionFor(s.WeatherID)
}

// Description returns human readable text for the summary's condition.
func (s Summary) Description() string {
	return DescribeCondition(s.WeatherID)
}

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CelsiusToFahrenheit converts a temperature reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

// FormatTemperature renders a temperature with the unit suffix, rounded to whole degrees.
func FormatTemperature(v float64, units Units) string {
	suffix := "C"
	if units == UnitsImperial {
		suffix = "F"
	}
	return fmt.Sprintf("%.0f°%s", math.Round(v), suffix)
}
