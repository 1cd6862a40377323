package msgraph

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Semester and Module receive the imported entries.
	Semester string
	Module   string
	// Timezone interprets event times without an offset. Empty means UTC.
	Timezone string
	DryRun   bool
}

// MappedEvent is a calendar event in entry form.
type MappedEvent struct {
	ExternalID string
	Category   string
	Comment    string
	Start      time.Time
	Stop       time.Time
}

// Duration returns the length of the event.
func (m MappedEvent) Duration() time.Duration {
	return m.Stop.Sub(m.Start)
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
		loc = l
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildComment combines bodyPreview and location into a comment string.
func buildComment(event CalendarEvent) string {
	var parts []string
	if event.BodyPreview != "" {
		parts = append(parts, event.BodyPreview)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	return strings.Join(parts, "\n")
}

// ShouldSkip reports whether the event is not imported: cancelled, all-day,
// private, free or without times.
func ShouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// MapEvent converts a Graph CalendarEvent into entry fields.
func MapEvent(event CalendarEvent, timezone string) (MappedEvent, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return MappedEvent{}, fmt.Errorf("parsing start time: %w", err)
	}
	stop, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return MappedEvent{}, fmt.Errorf("parsing end time: %w", err)
	}
	if stop.Before(start) {
		return MappedEvent{}, fmt.Errorf("event ends before it starts: %s < %s", event.End.DateTime, event.Start.DateTime)
	}
	return MappedEvent{
		ExternalID: event.ID,
		Category:   event.Subject,
		Comment:    buildComment(event),
		Start:      timecalc.Normalize(start),
		Stop:       timecalc.Normalize(stop),
	}, nil
}

// Syncer imports calendar events into a tracker.
type Syncer struct {
	Tracker *tracker.Tracker
	// Out receives one progress line per event.
	Out    io.Writer
	Logger zerolog.Logger
}

// Sync imports events as stopped entries of opts.Semester/opts.Module. An
// entry already linked to an event is skipped when unchanged and replaced
// when subject or times differ.
func (s *Syncer) Sync(events []CalendarEvent, opts SyncOptions) SyncResult {
	var result SyncResult
	for _, event := range events {
		if ShouldSkip(event) {
			s.Logger.Debug().Str("event", event.ID).Msg("event not eligible")
			continue
		}

		m, err := MapEvent(event, opts.Timezone)
		if err != nil {
			fmt.Fprintf(s.Out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		row, found := s.Tracker.EntryByExternalID(opts.Semester, opts.Module, m.ExternalID)
		switch {
		case found && unchanged(row, m):
			fmt.Fprintf(s.Out, "  – Skipped:  %s (already exists)\n", event.Subject)
			result.Skipped++
		case found:
			if !opts.DryRun {
				edit := tracker.EditFrom(row.Semester, row.Module, row.Entry)
				edit.Category = m.Category
				edit.Comment = m.Comment
				edit.Start = m.Start
				stop := m.Stop
				edit.Stop = &stop
				if _, err := s.Tracker.EditEntry(row.Semester, row.Module, row.Entry, edit); err != nil {
					fmt.Fprintf(s.Out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(s.Out, "  ↑ Updated:  %s (%s)\n", event.Subject, timecalc.FormatDuration(m.Duration()))
			result.Updated++
		default:
			if !opts.DryRun {
				if _, err := s.Tracker.ImportEntry(opts.Semester, opts.Module, m.Category, m.Comment, m.Start, m.Stop, m.ExternalID); err != nil {
					fmt.Fprintf(s.Out, "  ! Error saving %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(s.Out, "  ✓ Imported: %s (%s)\n", event.Subject, timecalc.FormatDuration(m.Duration()))
			result.Imported++
		}
	}

	s.Logger.Info().
		Int("imported", result.Imported).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Bool("dry_run", opts.DryRun).
		Msg("calendar sync finished")
	return result
}

func unchanged(row tracker.Row, m MappedEvent) bool {
	e := row.Entry
	return e.Category == m.Category &&
		e.StartTime.Equal(m.Start) &&
		e.StopTime != nil && e.StopTime.Equal(m.Stop)
}
