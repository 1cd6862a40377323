package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

func printTitle(w io.Writer, title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(w, title)
}

func printHint(w io.Writer, format string, args ...any) {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprintf(w, format+"\n", args...)
}

func newTable(header ...any) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(header...)
	return tbl
}

// printDurations renders grouped durations with their share of total.
func printDurations(w io.Writer, label string, items []model.NamedDuration, total time.Duration) {
	if len(items) == 0 {
		printHint(w, "  none")
		return
	}
	tbl := newTable(strings.ToUpper(label), "TIME", "SHARE")
	for _, it := range items {
		share := 0.0
		if total > 0 {
			share = 100 * float64(it.Duration) / float64(total)
		}
		tbl.AddRow(it.Name, timecalc.FormatDuration(it.Duration), fmt.Sprintf("%.1f%%", share))
	}
	tbl.AddRow("", timecalc.FormatDuration(total), "")
	_, _ = fmt.Fprintln(w, tbl)
}

// formatElapsed formats a live session length with seconds.
func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// formatStop renders an optional stop time.
func formatStop(t *time.Time) string {
	if t == nil {
		return "running"
	}
	return t.Format("2006-01-02 15:04")
}
