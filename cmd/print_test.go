package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/model"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "0s"},
		{999 * time.Millisecond, "0s"},
		{45 * time.Second, "45s"},
		{time.Minute, "1m 0s"},
		{25*time.Minute + 30*time.Second, "25m 30s"},
		{90 * time.Minute, "1h 30m 0s"},
		{26*time.Hour + 2*time.Second, "26h 0m 2s"},
	}
	for _, tt := range tests {
		got := formatElapsed(int64(tt.elapsed / time.Second))
		if got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.elapsed, got, tt.want)
		}
	}
}

func TestFormatStop(t *testing.T) {
	if got := formatStop(nil); got != "running" {
		t.Errorf("formatStop(nil) = %q, want %q", got, "running")
	}
	stop := time.Date(2026, 2, 27, 10, 30, 0, 0, time.Local)
	if got := formatStop(&stop); got != "2026-02-27 10:30" {
		t.Errorf("formatStop = %q, want %q", got, "2026-02-27 10:30")
	}
}

func TestPrintDurations(t *testing.T) {
	var out bytes.Buffer
	items := []model.NamedDuration{
		{Name: "lecture", Duration: 90 * time.Minute},
		{Name: "exercise", Duration: 30 * time.Minute},
	}
	printDurations(&out, "category", items, 2*time.Hour)

	for _, want := range []string{"CATEGORY", "lecture", "1h 30m", "75.0%", "exercise", "25.0%", "2h 0m"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	printDurations(&out, "module", nil, 0)
	if !strings.Contains(out.String(), "none") {
		t.Errorf("empty durations: %q", out.String())
	}
}
