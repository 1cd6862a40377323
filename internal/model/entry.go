package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

// Entry is a single timed activity record.
type Entry struct {
	ID        string
	Category  string
	Comment   string
	StartTime time.Time
	StopTime  *time.Time
	// ExternalID links an entry to its origin, e.g. an Outlook event.
	ExternalID string
}

// NewEntry creates an entry that starts now.
func NewEntry(category, comment string) *Entry {
	return &Entry{
		ID:        newID(),
		Category:  category,
		Comment:   comment,
		StartTime: timecalc.Now(),
	}
}

func newID() string {
	return uuid.NewString()
}

// Stop stamps the stop time with the current time and returns the duration.
// Calling Stop again moves the stop time forward.
func (e *Entry) Stop() time.Duration {
	now := timecalc.Now()
	if now.Before(e.StartTime) {
		now = e.StartTime
	}
	e.StopTime = &now
	return e.Duration()
}

// Running reports whether the entry has not been stopped yet.
func (e *Entry) Running() bool {
	return e.StopTime == nil
}

// Duration returns stop-start for stopped entries and the live elapsed time
// otherwise.
func (e *Entry) Duration() time.Duration {
	if e.StopTime == nil {
		return timecalc.Now().Sub(e.StartTime)
	}
	return e.StopTime.Sub(e.StartTime)
}

// SetTimes overwrites start and stop time. stop may be nil for a running
// entry but must not precede start.
func (e *Entry) SetTimes(start time.Time, stop *time.Time) error {
	start = timecalc.Normalize(start)
	if stop != nil {
		s := timecalc.Normalize(*stop)
		if s.Before(start) {
			return fmt.Errorf("%w: stop time %s before start time %s", ErrInvalidValue,
				timecalc.FormatISO(s), timecalc.FormatISO(start))
		}
		stop = &s
	}
	e.StartTime = start
	e.StopTime = stop
	return nil
}
