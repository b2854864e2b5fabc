package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/forecast-sync/internal/weather"
)

// Settings are the user preferences a sync run reads.
type Settings struct {
	Location             weather.Location `json:"location"`
	Units                weather.Units    `json:"units" validate:"oneof=metric imperial"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateLocation, weather.Location{})
	return v
}

// validateLocation requires a usable coordinate pair or a non-blank place name.
func validateLocation(sl validator.StructLevel) {
	loc, ok := sl.Current().Interface().(weather.Location)
	if !ok {
		return
	}
	if !loc.HasCoordinates() && strings.TrimSpace(loc.Query) == "" {
		sl.ReportError(loc.Query, "Query", "query", "coordinates_or_query", "")
	}
}

// Validate checks that the settings can drive a fetch.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func errDuplicateDate(d time.Time) error {
	return fmt.Errorf("duplicate record for %s", d.Format(time.DateOnly))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
