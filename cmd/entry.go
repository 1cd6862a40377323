package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var (
	addStart   string
	addStop    string
	addComment string

	editSemester      string
	editModule        string
	editCategory      string
	editComment       string
	editStart         string
	editStop          string
	editModuleStart   string
	editModuleStop    string
	editECTS          int
	editDurationWeeks int
)

var finishCmd = &cobra.Command{
	Use:   "finish <semester> <module>",
	Short: "Mark a module as finished",
	Args:  cobra.ExactArgs(2),
	RunE:  runFinish,
}

var addCmd = &cobra.Command{
	Use:   "add <semester> <module> <category>",
	Short: "Add an entry with given times",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Edit an entry",
	Long: `Edit an entry. Only given flags change. The entry is replaced and gets a
new id. Module flags apply to the module holding the entry afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var removeCmd = &cobra.Command{
	Use:   "remove <entry-id>",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	addCmd.Flags().StringVar(&addStart, "start", "", "Start time (required)")
	addCmd.Flags().StringVar(&addStop, "stop", "", "Stop time; omitted for a running entry")
	addCmd.Flags().StringVar(&addComment, "comment", "", "Optional comment")
	_ = addCmd.MarkFlagRequired("start")

	f := editCmd.Flags()
	f.StringVar(&editSemester, "semester", "", "Move to semester")
	f.StringVar(&editModule, "module", "", "Move to module")
	f.StringVar(&editCategory, "category", "", "New category")
	f.StringVar(&editComment, "comment", "", "New comment")
	f.StringVar(&editStart, "start", "", "New start time")
	f.StringVar(&editStop, "stop", "", "New stop time")
	f.StringVar(&editModuleStart, "module-start", "", "New module start")
	f.StringVar(&editModuleStop, "module-stop", "", "Mark the module finished at this time")
	f.IntVar(&editECTS, "ects", 0, "New module ECTS")
	f.IntVar(&editDurationWeeks, "weeks", 0, "New planned module duration in weeks")
}

func runFinish(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.tracker.FinishModule(args[0], args[1]); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Finished %s / %s\n", args[0], args[1])
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	start, err := parseTime(addStart)
	if err != nil {
		return err
	}
	var stop *time.Time
	if addStop != "" {
		t, err := parseTime(addStop)
		if err != nil {
			return err
		}
		stop = &t
	}

	e, err := a.tracker.AddNewEntry(args[0], args[1], args[2], addComment, start, stop)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	id, _ := a.tracker.ObjectID(e)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", id)
	return nil
}

// entryRef accepts "entry:<id>" or a bare entry id.
func entryRef(arg string) string {
	if strings.Contains(arg, ":") {
		return arg
	}
	return string(model.KindEntry) + ":" + arg
}

// findEntry resolves an entry id to the entry and its containers.
func findEntry(tr *tracker.Tracker, arg string) (*model.Semester, *model.Module, *model.Entry, error) {
	obj, err := tr.ObjectByID(entryRef(arg), nil)
	if err != nil {
		return nil, nil, nil, err
	}
	e, ok := obj.(*model.Entry)
	if !ok || e == nil {
		return nil, nil, nil, fmt.Errorf("entry %s: %w", arg, model.ErrNotFound)
	}
	sem, mod, _ := tr.Study().FindEntry(e.ID)
	return sem, mod, e, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sem, mod, e, err := findEntry(a.tracker, args[0])
	if err != nil {
		return err
	}

	edit, err := buildEdit(cmd, tracker.EditFrom(sem, mod, e))
	if err != nil {
		return err
	}
	replaced, err := a.tracker.EditEntry(sem, mod, e, edit)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	id, _ := a.tracker.ObjectID(replaced)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated entry, new id %s\n", id)
	return nil
}

// buildEdit applies the changed edit flags to edit.
func buildEdit(cmd *cobra.Command, edit tracker.EntryEdit) (tracker.EntryEdit, error) {
	flags := cmd.Flags()
	if flags.Changed("semester") {
		edit.Semester = editSemester
	}
	if flags.Changed("module") {
		edit.Module = editModule
	}
	if flags.Changed("category") {
		edit.Category = editCategory
	}
	if flags.Changed("comment") {
		edit.Comment = editComment
	}

	times := []struct {
		flag  string
		value string
		set   func(time.Time)
	}{
		{"start", editStart, func(t time.Time) { edit.Start = t }},
		{"stop", editStop, func(t time.Time) { edit.Stop = &t }},
		{"module-start", editModuleStart, func(t time.Time) { edit.ModuleStart = &t }},
		{"module-stop", editModuleStop, func(t time.Time) { edit.ModuleStop = &t }},
	}
	for _, tf := range times {
		if !flags.Changed(tf.flag) {
			continue
		}
		t, err := parseTime(tf.value)
		if err != nil {
			return edit, fmt.Errorf("--%s: %w", tf.flag, err)
		}
		tf.set(t)
	}

	if flags.Changed("ects") {
		ects := editECTS
		edit.ECTS = &ects
	}
	if flags.Changed("weeks") {
		weeks := editDurationWeeks
		edit.DurationWeeks = &weeks
	}
	return edit, nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sem, mod, e, err := findEntry(a.tracker, args[0])
	if err != nil {
		return err
	}
	if err := a.tracker.RemoveEntry(sem, mod, e); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s / %s / %s from %s\n",
		sem.Name, mod.Name, e.Category, e.StartTime.Format("2006-01-02 15:04"))
	return nil
}
