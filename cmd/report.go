package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/model"
)

var (
	reportSemester string
	reportModule   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show aggregated durations",
	Long: `Show durations of the whole study grouped by semester, of a semester
grouped by module, or of a module grouped by category.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportSemester, "semester", "", "Semester name")
	reportCmd.Flags().StringVar(&reportModule, "module", "", "Module name (needs --semester)")
}

// durationScope is any entity aggregating durations.
type durationScope interface {
	Durations() ([]model.NamedDuration, time.Duration)
}

// resolveScope returns the study, a semester or a module by name together
// with a title and the label of its children.
func resolveScope(study *model.Study, semester, module string) (scope durationScope, title, label string, err error) {
	if semester == "" {
		if module != "" {
			return nil, "", "", fmt.Errorf("%w: --module needs --semester", model.ErrInvalidArgument)
		}
		return study, "Study", "semester", nil
	}
	sem := study.Semester(semester)
	if sem == nil {
		return nil, "", "", fmt.Errorf("semester %q: %w", semester, model.ErrNotFound)
	}
	if module == "" {
		return sem, sem.Name, "module", nil
	}
	mod := sem.Module(module)
	if mod == nil {
		return nil, "", "", fmt.Errorf("module %q in semester %q: %w", module, semester, model.ErrNotFound)
	}
	return mod, sem.Name + " / " + mod.Name, "category", nil
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	scope, title, label, err := resolveScope(a.tracker.Study(), reportSemester, reportModule)
	if err != nil {
		return err
	}
	items, total := scope.Durations()

	w := cmd.OutOrStdout()
	printTitle(w, title)
	printDurations(w, label, items, total)
	return nil
}
