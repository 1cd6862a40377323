package timecalc

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ISOLayout is the timezone-naive ISO-8601 layout used in study documents.
// Fractional seconds are written only when present.
const ISOLayout = "2006-01-02T15:04:05.999999"

// Week is the unit used for planned module durations.
const Week = 7 * 24 * time.Hour

// DateFormats lists the layouts accepted for user-entered dates, in the
// order they are tried.
var DateFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"2006-01-02T15:04:05",
}

// Clock provides the current time. It can be swapped in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock provides a fixed, manually advanced time for testing.
type TestClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.CurrentTime
}

// Advance moves the test time forward by d.
func (t *TestClock) Advance(d time.Duration) {
	t.mu.Lock()
	t.CurrentTime = t.CurrentTime.Add(d)
	t.mu.Unlock()
}

var (
	clockMu sync.RWMutex
	clock   Clock = RealClock{}
)

// SetClock replaces the package clock and returns a func restoring the
// previous one.
func SetClock(c Clock) (restore func()) {
	clockMu.Lock()
	prev := clock
	clock = c
	clockMu.Unlock()
	return func() {
		clockMu.Lock()
		clock = prev
		clockMu.Unlock()
	}
}

// Now returns the current time truncated to microseconds, without a
// monotonic reading, so that it survives an ISO-8601 round-trip unchanged.
func Now() time.Time {
	clockMu.RLock()
	c := clock
	clockMu.RUnlock()
	return Normalize(c.Now())
}

// Normalize truncates t to microsecond precision and strips the monotonic
// clock reading.
func Normalize(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// FormatISO formats t as a timezone-naive ISO-8601 string in local time.
func FormatISO(t time.Time) string {
	return t.Local().Format(ISOLayout)
}

// ParseISO parses a timezone-naive ISO-8601 string as local time. Strings
// carrying an offset are accepted as well.
func ParseISO(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Normalize(t.Local()), nil
	}
	for _, layout := range []string{ISOLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05.999999", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// ParseDate parses a user-entered date in one of DateFormats. The error
// names every accepted format.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q, accepted formats: %s", s, strings.Join(DateFormats, ", "))
}

// WeeksBetween returns the number of whole weeks from start to end.
func WeeksBetween(start, end time.Time) int {
	return int(end.Sub(start) / Week)
}

// FormatDuration formats d as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDurationHHMMSS(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
