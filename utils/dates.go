package utils

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DateLayout is the calendar date format used for availability keys and legacy booking fields.
	DateLayout = "2006-01-02"
	// ClockLayout is the zero-padded time-of-day format of a slot.
	ClockLayout = "15:04"
)

// isoLayouts are tried in order when coercing strings. Layouts without an offset
// are read in the caller's location.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ToCalendarDate formats t as YYYY-MM-DD using the calendar fields of loc.
func ToCalendarDate(t time.Time, loc *time.Location) string {
	return t.In(orLocal(loc)).Format(DateLayout)
}

// NextNDates returns n consecutive calendar dates starting at from's date, inclusive.
func NextNDates(n int, from time.Time, loc *time.Location) []string {
	if n <= 0 {
		return nil
	}
	loc = orLocal(loc)
	from = from.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, day.AddDate(0, 0, i).Format(DateLayout))
	}
	return dates
}

// AddDays shifts a YYYY-MM-DD date by days.
func AddDays(date string, days int) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d.AddDate(0, 0, days).Format(DateLayout), nil
}

// CombineLocal builds the instant for a calendar date and clock time in loc.
// No zone conversion happens: "2025-03-10" + "10:00" is 10:00 wall time in loc.
func CombineLocal(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, orLocal(loc)), nil
}

// IsCalendarDate reports whether s is a valid YYYY-MM-DD date.
func IsCalendarDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsClockTime reports whether s is a valid zero-padded HH:MM time.
func IsClockTime(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// CoerceToInstant normalises the timestamp shapes found in stored booking
// records: native times, {seconds[, nanoseconds]} wrappers, epoch seconds and
// ISO strings. It reports false when v cannot be interpreted.
func CoerceToInstant(v interface{}, loc *time.Location) (time.Time, bool) {
	loc = orLocal(loc)
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case primitive.DateTime:
		return t.Time(), true
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0), true
	case interface{ AsTime() time.Time }:
		return t.AsTime(), true
	case map[string]interface{}:
		return fromSecondsWrapper(t)
	case primitive.M:
		return fromSecondsWrapper(map[string]interface{}(t))
	case primitive.D:
		return fromSecondsWrapper(t.Map())
	case string:
		return parseISO(t, loc)
	default:
		if secs, ok := asFloat(v); ok {
			return fromEpochSeconds(secs, 0), true
		}
	}
	return time.Time{}, false
}

func fromSecondsWrapper(m map[string]interface{}) (time.Time, bool) {
	raw, ok := m["seconds"]
	if !ok {
		raw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, false
	}
	secs, ok := asFloat(raw)
	if !ok {
		return time.Time{}, false
	}
	var nanos float64
	if n, ok := m["nanoseconds"]; ok {
		nanos, _ = asFloat(n)
	} else if n, ok := m["_nanoseconds"]; ok {
		nanos, _ = asFloat(n)
	}
	return fromEpochSeconds(secs, int64(nanos)), true
}

func fromEpochSeconds(secs float64, nanos int64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)+nanos)
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpochSeconds(secs, 0), true
	}
	return time.Time{}, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
