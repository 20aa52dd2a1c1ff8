package utils

import (
	"fmt"
	"strconv"
	"time"
)

// -----------------------------------------------------------------------------
// Time Codec
// -----------------------------------------------------------------------------
//
// Timestamps travel through the system as fixed-width strings of the form
//
//	"YYYY-MM-DD HH:mm:ss.sss +HH"   (27 chars)
//
// The zone token is produced by a naive fixed-offset shift: the instant is
// moved by tzHours before formatting, without a zone-database lookup.

const stringTimeLength = 27

const stringTimeLayout = "2006-01-02 15:04:05.000"

// -----------------------------------------------------------------------------

// EpochToString renders epoch milliseconds as wall-clock time in the given
// fixed offset.
func EpochToString(ms int64, tzHours int) (string, error) {
	if tzHours > 12 || tzHours < -12 {
		return "", fmt.Errorf("timezone %d out of range [-12,12]", tzHours)
	}
	shifted := time.UnixMilli(ms + int64(tzHours)*int64(time.Hour/time.Millisecond)).UTC()
	return shifted.Format(stringTimeLayout) + " " + TimezoneToString(tzHours), nil
}

// -----------------------------------------------------------------------------

// NowString returns the current time as a string timestamp.
func NowString(tzHours int) (string, error) {
	return EpochToString(time.Now().UnixMilli(), tzHours)
}

// -----------------------------------------------------------------------------

// StringToEpoch is the inverse of EpochToString for the date+time component.
// The zone token is reassembled positionally (chars 0-22 joined with 24-26),
// not interpreted beyond its fixed offset.
func StringToEpoch(s string) (int64, error) {
	if len(s) != stringTimeLength {
		return 0, fmt.Errorf("string time %q has length %d, want %d", s, len(s), stringTimeLength)
	}
	compact := s[:23] + s[24:27]
	t, err := time.Parse("2006-01-02 15:04:05.000-07", compact)
	if err != nil {
		return 0, fmt.Errorf("parse string time %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}

// -----------------------------------------------------------------------------

// TimezoneToString renders a fixed offset as a 3-char zone token, e.g. "+08".
func TimezoneToString(tzHours int) string {
	return fmt.Sprintf("%+03d", tzHours)
}

// -----------------------------------------------------------------------------

// TruncateToMinute trims a string timestamp for display: minute precision
// plus the zone token. Pure string surgery, no reparsing.
func TruncateToMinute(s string) string {
	if len(s) < 20 {
		return s
	}
	return s[:16] + " " + s[len(s)-4:]
}

// -----------------------------------------------------------------------------

// ShiftMonth adds n calendar months to a "YYYY-MM" key, carrying into the
// year component. Months stay normalized to 01-12.
func ShiftMonth(yearMonth string, n int) string {
	year, _ := strconv.Atoi(yearMonth[:4])
	month, _ := strconv.Atoi(yearMonth[5:7])
	month += n
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}
	return fmt.Sprintf("%d-%02d", year, month)
}

// -----------------------------------------------------------------------------

// YearMonthOf slices the "YYYY-MM" key out of a string timestamp.
func YearMonthOf(stringTime string) string {
	if len(stringTime) < 7 {
		return stringTime
	}
	return stringTime[:7]
}

// -----------------------------------------------------------------------------

// MinuteOf slices the minute component, "YYYY-MM-DD HH:mm", out of a string
// timestamp. Used to debounce per-minute triggers.
func MinuteOf(stringTime string) string {
	if len(stringTime) < 16 {
		return stringTime
	}
	return stringTime[:16]
}

// -----------------------------------------------------------------------------

// MinuteDigitOf returns the last digit of the minute component, or an empty
// string when the timestamp is too short.
func MinuteDigitOf(stringTime string) string {
	if len(stringTime) < 16 {
		return ""
	}
	return stringTime[15:16]
}

// -----------------------------------------------------------------------------

// DurationToMilli converts day/hour/minute/second counts to milliseconds.
func DurationToMilli(days, hours, minutes, seconds int) int64 {
	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return total.Milliseconds()
}
