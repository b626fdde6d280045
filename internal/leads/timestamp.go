package leads

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISOLayout is the canonical UTC representation sent to the store.
const ISOLayout = "2006-01-02T15:04:05.000Z"

const msPerDay = 86_400_000

// serialEpoch is day zero of the spreadsheet serial date system.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxAbsMillis bounds serial conversions to the range a calendar timestamp can hold.
const maxAbsMillis = 8.64e15

// CoerceTimestamp converts a raw cell value into an ISO-8601 UTC string.
// It returns nil for empty, unparseable or unsupported values and never panics.
func CoerceTimestamp(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return coerceText(val)
	case float64:
		return coerceSerial(val)
	case float32:
		return coerceSerial(float64(val))
	case int:
		return coerceSerial(float64(val))
	case int8:
		return coerceSerial(float64(val))
	case int16:
		return coerceSerial(float64(val))
	case int32:
		return coerceSerial(float64(val))
	case int64:
		return coerceSerial(float64(val))
	case uint:
		return coerceSerial(float64(val))
	case uint8:
		return coerceSerial(float64(val))
	case uint16:
		return coerceSerial(float64(val))
	case uint32:
		return coerceSerial(float64(val))
	case uint64:
		return coerceSerial(float64(val))
	default:
		return nil
	}
}

func coerceText(s string) (out *string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	defer func() {
		// dateparse has panicked on odd inputs in the past
		if recover() != nil {
			out = nil
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	t, ok := resolveZone(t)
	if !ok || t.UTC().Year() < 1 {
		return nil
	}
	return formatISO(t)
}

// zoneOffsets holds the abbreviations accepted in date text, in seconds east of UTC.
// Ambiguous ones (CST, IST, BST) are left out and yield no timestamp.
var zoneOffsets = map[string]int{
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
	"AKST": -9 * 3600, "AKDT": -8 * 3600,
	"HST": -10 * 3600,
	"WET": 0, "WEST": 1 * 3600,
	"CET": 1 * 3600, "CEST": 2 * 3600,
	"EET": 2 * 3600, "EEST": 3 * 3600,
	"JST": 9 * 3600,
	"AEST": 10 * 3600, "AEDT": 11 * 3600,
}

// resolveZone fixes times parsed with a zone abbreviation the parser could not
// place. Those come back in a named zone with a zero offset; the wall clock is
// reinterpreted with the real offset, or rejected when the name is unknown.
func resolveZone(t time.Time) (time.Time, bool) {
	name, off := t.Zone()
	switch name {
	case "", "UTC", "GMT", "UT", "Z":
		return t, true
	}
	if off != 0 {
		return t, true
	}
	offset, ok := zoneOffsets[name]
	if !ok {
		return time.Time{}, false
	}
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.FixedZone(name, offset)), true
}

func coerceSerial(days float64) *string {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return nil
	}
	ms := math.Round(days * msPerDay)
	if math.Abs(ms) > maxAbsMillis {
		return nil
	}
	return formatISO(time.UnixMilli(serialEpoch.UnixMilli() + int64(ms)))
}

func formatISO(t time.Time) *string {
	t = t.UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return nil
	}
	s := t.Format(ISOLayout)
	return &s
}
