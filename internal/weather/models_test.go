package weather

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, 6, 2, 5, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), NormalizeDate(in))
}

func TestLocationHasCoordinates(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	assert.True(t, Location{Lat: f(52.5), Lon: f(13.4)}.HasCoordinates())
	assert.False(t, Location{Lat: f(52.5)}.HasCoordinates())
	assert.False(t, Location{Lat: f(91), Lon: f(0)}.HasCoordinates())
	assert.False(t, Location{Lat: f(0), Lon: f(-181)}.HasCoordinates())
	assert.Equal(t, "Berlin,DE", Location{Query: "Berlin,DE"}.Key())
	assert.Equal(t, "52.5000,13.4000", Location{Query: "Berlin,DE", Lat: f(52.5), Lon: f(13.4)}.Key())
}

func TestConditionMapping(t *testing.T) {
	cases := []struct {
		code int
		id   int
		cond Condition
		text string
	}{
		{211, 211, ConditionStorm, "Thunderstorm"},
		{301, 301, ConditionRain, "Drizzle"},
		{502, 502, ConditionRain, "Heavy rain"},
		{601, 601, ConditionSnow, "Snow"},
		{741, 741, ConditionMist, "Fog"},
		{800, 800, ConditionClear, "Clear"},
		{804, 804, ConditionCloudy, "Overcast clouds"},
		{231, 231, ConditionStorm, "Storm"},
		{100, ConditionUnknownID, ConditionUnknown, "Unknown"},
		{900, ConditionUnknownID, ConditionUnknown, "Unknown"},
	}
	for _, tc := range cases {
		id := ConditionID(tc.code)
		assert.Equal(t, tc.id, id, "code %d", tc.code)
		assert.Equal(t, tc.cond, ConditionFor(id), "code %d", tc.code)
		assert.Equal(t, tc.text, DescribeCondition(id), "code %d", tc.code)
	}
	assert.Equal(t, "ic_clear", ConditionIcon(800))
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "21°C", FormatTemperature(20.6, UnitsMetric))
	assert.Equal(t, "-3°F", FormatTemperature(-3.4, UnitsImperial))
	assert.InDelta(t, 98.6, CelsiusToFahrenheit(37), 1e-9)
}

func TestKindOf(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnexpected, KindOf(base))
	assert.Equal(t, KindNetwork, KindOf(NewError(KindNetwork, "fetch", base)))
	assert.Equal(t, KindStorage, KindOf(fmt.Errorf("outer: %w", NewError(KindStorage, "replace", base))))

	err := wrapKind(KindStorage, "replace", NewError(KindNetwork, "fetch", base))
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, base)
}
