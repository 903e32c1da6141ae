package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToCalendarDateUsesLocalFields(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)
	// 22:30 UTC on Jan 31 is already Feb 1 in a UTC+3 zone.
	instant := time.Date(2025, time.January, 31, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-02-01", ToCalendarDate(instant, loc))
	assert.Equal(t, "2025-01-31", ToCalendarDate(instant, time.UTC))
}

func TestNextNDates(t *testing.T) {
	from := time.Date(2024, time.February, 27, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, NextNDates(4, from, time.UTC))
	assert.Empty(t, NextNDates(0, from, time.UTC))
}

func TestCombineLocal(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)

	got, err := CombineLocal("2025-03-10", "10:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 10, 0, 0, 0, loc), got)
	assert.Equal(t, "10:00", got.Format(ClockLayout))

	_, err = CombineLocal("2025-3-10", "10:00", loc)
	assert.Error(t, err)
	_, err = CombineLocal("2025-03-10", "25:00", loc)
	assert.Error(t, err)
}

func TestCoerceToInstantLegacyShapes(t *testing.T) {
	loc := time.UTC

	got, ok := CoerceToInstant(map[string]interface{}{"seconds": int64(1700000000)}, loc)
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got.UTC())

	got, ok = CoerceToInstant("2024-01-01T10:00:00", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 1, 10, 0, 0, 0, loc), got)

	_, ok = CoerceToInstant("N/A", loc)
	assert.False(t, ok)
}

func TestCoerceToInstantStoreShapes(t *testing.T) {
	native := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

	cases := map[string]interface{}{
		"time":          native,
		"pointer":       &native,
		"bson datetime": primitive.NewDateTimeFromTime(native),
		"bson wrapper":  bson.M{"seconds": float64(native.Unix())},
		"admin wrapper": map[string]interface{}{"_seconds": native.Unix(), "_nanoseconds": 0},
		"rfc3339":       "2025-03-10T10:00:00Z",
	}
	for name, v := range cases {
		got, ok := CoerceToInstant(v, time.UTC)
		require.True(t, ok, name)
		assert.True(t, native.Equal(got), name)
	}

	for _, v := range []interface{}{nil, "", (*time.Time)(nil), time.Time{}, map[string]interface{}{"nanos": 1}, true} {
		_, ok := CoerceToInstant(v, time.UTC)
		assert.False(t, ok)
	}
}

func TestClockAndDateValidation(t *testing.T) {
	assert.True(t, IsClockTime("08:30"))
	assert.False(t, IsClockTime("8:30"))
	assert.False(t, IsClockTime("24:00"))
	assert.True(t, IsCalendarDate("2025-03-10"))
	assert.False(t, IsCalendarDate("2025-02-30"))
}
