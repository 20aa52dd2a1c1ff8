package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochToString_Format(t *testing.T) {
	// 2024-05-06 07:08:09.123 UTC
	const ms = int64(1714979289123)

	s, err := EpochToString(ms, 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06 07:08:09.123 +00", s)
	assert.Len(t, s, 27)

	s, err = EpochToString(ms, 8)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06 15:08:09.123 +08", s, "offset shifts the rendered wall clock")

	s, err = EpochToString(ms, -5)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06 02:08:09.123 -05", s)
}

func TestEpochToString_TimezoneRange(t *testing.T) {
	_, err := EpochToString(0, 13)
	assert.Error(t, err)

	_, err = EpochToString(0, -13)
	assert.Error(t, err)

	_, err = EpochToString(0, 12)
	assert.NoError(t, err)

	_, err = EpochToString(0, -12)
	assert.NoError(t, err)
}

func TestStringToEpoch_RoundTrip(t *testing.T) {
	const ms = int64(1714979289123)

	for tz := -12; tz <= 12; tz++ {
		s, err := EpochToString(ms, tz)
		require.NoError(t, err)
		require.Len(t, s, 27)

		got, err := StringToEpoch(s)
		require.NoError(t, err, "tz %d", tz)
		assert.Equal(t, ms, got, "round trip must recover the instant at tz %d", tz)
	}
}

func TestStringToEpoch_RejectsWrongLength(t *testing.T) {
	_, err := StringToEpoch("2024-05-06 07:08:09.123 +8")
	assert.Error(t, err)

	_, err = StringToEpoch("")
	assert.Error(t, err)

	_, err = StringToEpoch("2024-05-06 07:08:09.123  +08")
	assert.Error(t, err)
}

func TestTimezoneToString(t *testing.T) {
	assert.Equal(t, "+08", TimezoneToString(8))
	assert.Equal(t, "+00", TimezoneToString(0))
	assert.Equal(t, "-05", TimezoneToString(-5))
	assert.Equal(t, "+12", TimezoneToString(12))
	assert.Equal(t, "-12", TimezoneToString(-12))
}

func TestTruncateToMinute(t *testing.T) {
	assert.Equal(t, "2024-05-06 15:08  +08", TruncateToMinute("2024-05-06 15:08:09.123 +08"))
	assert.Equal(t, "", TruncateToMinute(""))
	assert.Equal(t, "2024-05-06", TruncateToMinute("2024-05-06"), "short inputs pass through")
}

func TestShiftMonth(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"2024-12", 1, "2025-01"},
		{"2024-01", -1, "2023-12"},
		{"2024-06", 0, "2024-06"},
		{"2024-06", 7, "2025-01"},
		{"2024-06", -18, "2022-12"},
		{"2024-01", 25, "2026-02"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ShiftMonth(tc.in, tc.n), "ShiftMonth(%q, %d)", tc.in, tc.n)
	}
}

func TestMinuteHelpers(t *testing.T) {
	const s = "2024-05-06 15:08:09.123 +08"
	assert.Equal(t, "2024-05-06 15:08", MinuteOf(s))
	assert.Equal(t, "8", MinuteDigitOf(s))
	assert.Equal(t, "2024-05", YearMonthOf(s))
	assert.Equal(t, "", MinuteDigitOf("short"))
}

func TestDurationToMilli(t *testing.T) {
	assert.Equal(t, int64(90061000), DurationToMilli(1, 1, 1, 1))
	assert.Equal(t, int64(8*3600*1000), DurationToMilli(0, 8, 0, 0))
}
