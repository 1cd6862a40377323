package msgraph_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/msgraph"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var meetings = msgraph.SyncOptions{Semester: "Meetings", Module: "Meetings", Timezone: "UTC"}

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       msgraph.DateTimeZone{DateTime: start, TimeZone: "UTC"},
		End:         msgraph.DateTimeZone{DateTime: end, TimeZone: "UTC"},
	}
}

func newSyncer(t *testing.T) (*msgraph.Syncer, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	tr := tracker.New(model.NewStudy(180, 30, time.Date(2028, 9, 30, 0, 0, 0, 0, time.UTC)))
	return &msgraph.Syncer{Tracker: tr, Out: &out}, &out
}

func meetingEntries(s *msgraph.Syncer) []tracker.Row {
	return s.Tracker.FilteredDataList("Meetings", "Meetings", "")
}

func TestMapEvent(t *testing.T) {
	event := makeEvent("ext-id-1", "Sprint Planning", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	m, err := msgraph.MapEvent(event, "UTC")
	if err != nil {
		t.Fatalf("MapEvent: %v", err)
	}
	if m.ExternalID != "ext-id-1" {
		t.Errorf("ExternalID = %q, want %q", m.ExternalID, "ext-id-1")
	}
	if m.Category != "Sprint Planning" {
		t.Errorf("Category = %q, want %q", m.Category, "Sprint Planning")
	}
	if m.Comment != "" {
		t.Errorf("Comment = %q, want empty", m.Comment)
	}
	if m.Duration() != 90*time.Minute {
		t.Errorf("Duration = %v, want 1h30m", m.Duration())
	}
	if want := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC); !m.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", m.Start, want)
	}
}

func TestMapEvent_WithLocation(t *testing.T) {
	event := makeEvent("ext-id-2", "Standup", "2026-02-27T10:00:00", "2026-02-27T10:15:00")
	event.BodyPreview = "Daily standup"
	event.Location.DisplayName = "Zoom"

	m, err := msgraph.MapEvent(event, "UTC")
	if err != nil {
		t.Fatalf("MapEvent: %v", err)
	}
	if m.Comment != "Daily standup\nZoom" {
		t.Errorf("Comment = %q, want %q", m.Comment, "Daily standup\nZoom")
	}
}

func TestMapEvent_Timezones(t *testing.T) {
	event := makeEvent("tz", "Lecture", "2026-02-27T09:00:00.0000000", "2026-02-27T10:00:00.0000000")
	m, err := msgraph.MapEvent(event, "Europe/Berlin")
	if err != nil {
		t.Fatalf("MapEvent: %v", err)
	}
	if want := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC); !m.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", m.Start.UTC(), want)
	}

	event = makeEvent("rfc", "Lecture", "2026-02-27T09:00:00+01:00", "2026-02-27T10:00:00+01:00")
	m, err = msgraph.MapEvent(event, "")
	if err != nil {
		t.Fatalf("MapEvent: %v", err)
	}
	if want := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC); !m.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", m.Start.UTC(), want)
	}

	// Times with an offset ignore the configured zone.
	if _, err := msgraph.MapEvent(event, "Mars/Olympus"); err != nil {
		t.Errorf("MapEvent with offset: %v", err)
	}
	local := makeEvent("local", "Lecture", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
	if _, err := msgraph.MapEvent(local, "Mars/Olympus"); err == nil {
		t.Error("expected error for unknown timezone")
	}
	bad := makeEvent("bad", "Lecture", "27.02.2026 09:00", "2026-02-27T10:00:00")
	if _, err := msgraph.MapEvent(bad, "UTC"); err == nil {
		t.Error("expected error for unparsable start")
	}
	reversed := makeEvent("rev", "Lecture", "2026-02-27T10:00:00", "2026-02-27T09:00:00")
	if _, err := msgraph.MapEvent(reversed, "UTC"); err == nil {
		t.Error("expected error for end before start")
	}
}

func TestSync_Import(t *testing.T) {
	s, out := newSyncer(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}

	result := s.Sync(events, meetings)
	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1", result.Imported)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if !strings.Contains(out.String(), "✓ Imported: Architecture Board (1h 30m)") {
		t.Errorf("unexpected output %q", out.String())
	}

	rows := meetingEntries(s)
	if len(rows) != 1 {
		t.Fatalf("entries = %d, want 1", len(rows))
	}
	e := rows[0].Entry
	if e.ExternalID != "ext-1" {
		t.Errorf("ExternalID = %q, want %q", e.ExternalID, "ext-1")
	}
	if e.Running() {
		t.Error("imported entry must be stopped")
	}
	if e.Category != "Architecture Board" {
		t.Errorf("Category = %q", e.Category)
	}
}

func TestSync_Idempotent(t *testing.T) {
	s, _ := newSyncer(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}

	if r1 := s.Sync(events, meetings); r1.Imported != 1 {
		t.Errorf("first sync: Imported = %d, want 1", r1.Imported)
	}
	r2 := s.Sync(events, meetings)
	if r2.Imported != 0 {
		t.Errorf("second sync: Imported = %d, want 0 (idempotent)", r2.Imported)
	}
	if r2.Skipped != 1 {
		t.Errorf("second sync: Skipped = %d, want 1", r2.Skipped)
	}
	if n := len(meetingEntries(s)); n != 1 {
		t.Fatalf("entries = %d after 2 syncs, want 1", n)
	}
}

func TestSync_Update(t *testing.T) {
	s, _ := newSyncer(t)
	event := makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	s.Sync([]msgraph.CalendarEvent{event}, meetings)
	before := meetingEntries(s)[0].Entry.ID

	event.Subject = "Architecture Board (updated)"
	event.End.DateTime = "2026-02-27T11:00:00"
	r2 := s.Sync([]msgraph.CalendarEvent{event}, meetings)
	if r2.Updated != 1 {
		t.Errorf("Updated = %d, want 1", r2.Updated)
	}

	rows := meetingEntries(s)
	if len(rows) != 1 {
		t.Fatalf("entries = %d, want 1", len(rows))
	}
	e := rows[0].Entry
	if e.Category != "Architecture Board (updated)" {
		t.Errorf("Category = %q, want updated", e.Category)
	}
	if e.Duration() != 2*time.Hour {
		t.Errorf("Duration = %v, want 2h", e.Duration())
	}
	if e.ExternalID != "ext-1" {
		t.Errorf("ExternalID = %q, want kept", e.ExternalID)
	}
	if e.ID == before {
		t.Error("replacement entry must get a new id")
	}
}

func TestSync_SkipFiltered(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*msgraph.CalendarEvent)
	}{
		{"cancelled", func(e *msgraph.CalendarEvent) { e.IsCancelled = true }},
		{"all-day", func(e *msgraph.CalendarEvent) { e.IsAllDay = true }},
		{"private", func(e *msgraph.CalendarEvent) { e.Sensitivity = "private" }},
		{"free", func(e *msgraph.CalendarEvent) { e.ShowAs = "free" }},
		{"missing end", func(e *msgraph.CalendarEvent) { e.End.DateTime = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSyncer(t)
			event := makeEvent("c1", tt.name, "2026-02-27T09:00:00", "2026-02-27T10:00:00")
			tt.modify(&event)
			if !msgraph.ShouldSkip(event) {
				t.Errorf("ShouldSkip = false for %s event", tt.name)
			}
			r := s.Sync([]msgraph.CalendarEvent{event}, meetings)
			if r.Imported != 0 {
				t.Errorf("expected 0 imported for %s event, got %d", tt.name, r.Imported)
			}
			if n := len(meetingEntries(s)); n != 0 {
				t.Errorf("entries = %d, want 0", n)
			}
		})
	}
}

func TestSync_DryRun(t *testing.T) {
	s, _ := newSyncer(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-dry", "Dry Run Event", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	opts := meetings
	opts.DryRun = true

	result := s.Sync(events, opts)
	if result.Imported != 1 {
		t.Errorf("dry-run Imported = %d, want 1", result.Imported)
	}
	if n := len(meetingEntries(s)); n != 0 {
		t.Errorf("dry-run wrote %d entries, want 0", n)
	}
}

func TestSync_Errors(t *testing.T) {
	s, out := newSyncer(t)
	events := []msgraph.CalendarEvent{
		makeEvent("bad", "Broken", "yesterday", "2026-02-27T10:00:00"),
		makeEvent("ok", "Fine", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	r := s.Sync(events, meetings)
	if r.Errors != 1 || r.Imported != 1 {
		t.Errorf("result = %+v, want 1 error and 1 import", r)
	}
	if !strings.Contains(out.String(), `! Error mapping event "Broken"`) {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSync_PreservesManualEntries(t *testing.T) {
	s, _ := newSyncer(t)
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	manual, err := s.Tracker.AddNewEntry("Meetings", "Meetings", "Meeting", "notes", start, &stop)
	if err != nil {
		t.Fatalf("adding manual entry: %v", err)
	}

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Meeting", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	s.Sync(events, meetings)

	rows := meetingEntries(s)
	if len(rows) != 2 {
		t.Fatalf("entries = %d, want 2 (manual + imported)", len(rows))
	}
	if rows[0].Entry.ID != manual.ID || rows[0].Entry.ExternalID != "" {
		t.Errorf("manual entry changed: %+v", rows[0].Entry)
	}
}
