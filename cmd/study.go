package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

var (
	studyECTS  int
	studyHours int
	studyEnd   string
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Create, change or show the study",
}

var studyNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Replace the study by a new, empty one",
	Args:  cobra.NoArgs,
	RunE:  runStudyNew,
}

var studySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the study parameters",
	Args:  cobra.NoArgs,
	RunE:  runStudySet,
}

var studyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show study parameters and progress",
	Args:  cobra.NoArgs,
	RunE:  runStudyShow,
}

func init() {
	for _, c := range []*cobra.Command{studyNewCmd, studySetCmd} {
		c.Flags().IntVar(&studyECTS, "ects", 180, "ECTS credits of the study")
		c.Flags().IntVar(&studyHours, "hours", 30, "Hours of work per ECTS credit")
		c.Flags().StringVar(&studyEnd, "end", "", "Planned end date")
	}
	studyCmd.AddCommand(studyNewCmd, studySetCmd, studyShowCmd)
}

func runStudyNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	end := defaultStudy().PlannedEnd
	if studyEnd != "" {
		if end, err = parseTime(studyEnd); err != nil {
			return err
		}
	}
	if err := a.tracker.CreateNewStudy(studyECTS, studyHours, end); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created study with %d ECTS (%d h/ECTS), planned end %s\n",
		studyECTS, studyHours, end.Format("2006-01-02"))
	return nil
}

func runStudySet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	p := a.tracker.StudyParameters()
	if cmd.Flags().Changed("ects") {
		p.ECTS = studyECTS
	}
	if cmd.Flags().Changed("hours") {
		p.HoursPerECTS = studyHours
	}
	if cmd.Flags().Changed("end") {
		if p.PlannedEnd, err = parseTime(studyEnd); err != nil {
			return err
		}
	}
	a.tracker.UpdateStudy(p.ECTS, p.HoursPerECTS, p.PlannedEnd)
	return a.save()
}

func runStudyShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	p := a.tracker.StudyParameters()
	study := a.tracker.Study()
	items, total := study.Durations()

	var finished int
	for _, m := range a.tracker.Modules("") {
		if m.Stop != nil {
			finished += m.ECTS
		}
	}
	planned := time.Duration(p.ECTS*p.HoursPerECTS) * time.Hour

	printTitle(w, "Study")
	tbl := newTable("ECTS", "H/ECTS", "PLANNED END", "FINISHED", "TIME", "PLANNED TIME")
	tbl.AddRow(p.ECTS, p.HoursPerECTS, p.PlannedEnd.Format("2006-01-02"),
		fmt.Sprintf("%d ECTS", finished), timecalc.FormatDuration(total), timecalc.FormatDuration(planned))
	fmt.Fprintln(w, tbl)
	fmt.Fprintln(w)

	printTitle(w, "Semesters")
	printDurations(w, "semester", items, total)
	return nil
}
