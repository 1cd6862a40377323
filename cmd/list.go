package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var (
	listSemester string
	listModule   string
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	Long: `List entries with their ids. Filters match the beginning of the semester,
module and category names.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSemester, "semester", "", "Semester name prefix")
	listCmd.Flags().StringVar(&listModule, "module", "", "Module name prefix")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Category prefix")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	rows := a.tracker.FilteredDataList(listSemester, listModule, listCategory)
	printList(cmd.OutOrStdout(), a.tracker, rows)
	return nil
}

// printList prints rows as a table.
func printList(w io.Writer, tr *tracker.Tracker, rows []tracker.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	tbl := newTable("ID", "SEMESTER", "MODULE", "CATEGORY", "START", "STOP", "TIME", "COMMENT")
	for _, r := range rows {
		id, _ := tr.ObjectID(r.Entry)
		tbl.AddRow(id, r.Semester.Name, r.Module.Name, r.Entry.Category,
			r.Entry.StartTime.Format("2006-01-02 15:04"), formatStop(r.Entry.StopTime),
			timecalc.FormatDuration(r.Entry.Duration()), r.Entry.Comment)
	}
	fmt.Fprintln(w, tbl)
}
