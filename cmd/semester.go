package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

var semesterCmd = &cobra.Command{
	Use:   "semester",
	Short: "List or change semesters",
}

var semesterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List semesters and their modules",
	Args:  cobra.NoArgs,
	RunE:  runSemesterList,
}

var semesterSetCmd = &cobra.Command{
	Use:   "set <semester> <ECTS|plannedEnd> <value>",
	Short: "Set a semester field",
	Args:  cobra.ExactArgs(3),
	RunE:  runSemesterSet,
}

func init() {
	semesterCmd.AddCommand(semesterListCmd, semesterSetCmd)
}

func runSemesterList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	semesters := a.tracker.Semesters()
	if len(semesters) == 0 {
		fmt.Fprintln(w, "No semesters yet.")
		return nil
	}

	for _, sem := range semesters {
		planned := "-"
		if sem.PlannedEnd != nil {
			planned = sem.PlannedEnd.Format("2006-01-02")
		}
		id, _ := a.tracker.ObjectID(sem)
		printTitle(w, sem.Name)
		printHint(w, "%s  ECTS %d  planned end %s", id, sem.ECTS, planned)

		tbl := newTable("MODULE", "ECTS", "START", "PLANNED END", "FINISHED", "TIME")
		for _, m := range sem.Modules() {
			finished := "-"
			if m.Stop != nil {
				finished = m.Stop.Format("2006-01-02")
			}
			_, total := m.Durations()
			tbl.AddRow(m.Name, m.ECTS, m.Start.Format("2006-01-02"), m.PlannedEnd.Format("2006-01-02"),
				finished, timecalc.FormatDuration(total))
		}
		fmt.Fprintln(w, tbl)
		fmt.Fprintln(w)
	}
	return nil
}

func runSemesterSet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sem := a.tracker.Semester(args[0])
	if sem == nil {
		return fmt.Errorf("semester %q: %w", args[0], model.ErrNotFound)
	}
	if err := a.tracker.UpdateSemester(sem, args[1], args[2]); err != nil {
		return err
	}
	return a.save()
}
