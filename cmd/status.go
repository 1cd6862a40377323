package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if sem, mod, e, ok := a.tracker.Study().ActiveEntry(); ok {
		fmt.Fprintln(w, "Running:")
		fmt.Fprintf(w, "  Semester: %s\n", sem.Name)
		fmt.Fprintf(w, "  Module:   %s\n", mod.Name)
		fmt.Fprintf(w, "  Category: %s\n", e.Category)
		if e.Comment != "" {
			fmt.Fprintf(w, "  Comment:  %s\n", e.Comment)
		}
		fmt.Fprintf(w, "  Since:    %s\n", e.StartTime.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  Elapsed:  %s\n", timecalc.FormatDurationHHMMSS(e.Duration()))
		return nil
	}

	fmt.Fprintln(w, "No running session.")
	if last, ok := a.tracker.LastTrackingInformation(); ok {
		fmt.Fprintf(w, "Last: %s / %s / %s\n", last.Semester, last.Module, last.Category)
	}
	_, total := a.tracker.Study().Durations()
	fmt.Fprintf(w, "Total: %s logged.\n", timecalc.FormatDuration(total))
	return nil
}
