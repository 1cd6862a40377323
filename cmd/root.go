package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/config"
	"github.com/Tiliavir/study-time-tracker/internal/logging"
	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var (
	configPath string
	studyFile  string
)

var rootCmd = &cobra.Command{
	Use:   "stt",
	Short: "Study Time Tracker – track the time spent on a study programme",
	Long: `stt tracks study time per semester, module and category.
The study is stored as a single human-readable JSON document, by default
~/.stt/study.json. Settings live in ~/.stt/config.json.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&studyFile, "file", "", "Study document (default: last used file)")

	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(semesterCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(outlookCmd)
}

// storageError marks failures reading or writing files. They exit with
// code 2, everything else with 1.
type storageError struct {
	err error
}

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var se *storageError
	if errors.As(err, &se) {
		return 2
	}
	return 1
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	tracker *tracker.Tracker
	file    string
}

// defaultStudy is used until a study document exists.
func defaultStudy() *model.Study {
	end := timecalc.StartOfDay(timecalc.Now()).AddDate(3, 0, 0)
	return model.NewStudy(180, 30, timecalc.Normalize(end))
}

// newApp loads config and the study document. A missing document starts
// an empty default study.
func newApp(cmd *cobra.Command, opts ...tracker.Option) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	file := studyFile
	if file == "" {
		file = cfg.StudyFile()
	}

	opts = append([]tracker.Option{
		tracker.WithInterval(cfg.Tracking.Interval),
		tracker.WithSettings(cfg.Settings()),
		tracker.WithLogger(logging.Component(logger, "tracker")),
		tracker.WithModuleDefaults(cfg.ModuleDefaults()),
	}, opts...)
	tr := tracker.New(defaultStudy(), opts...)

	if _, err := tr.ImportJSON(file); err != nil && !errors.Is(err, model.ErrFileNotFound) {
		return nil, &storageError{err}
	}
	return &app{cfg: cfg, log: logger, tracker: tr, file: file}, nil
}

// save writes the study back to its document.
func (a *app) save() error {
	if _, err := a.tracker.ExportJSON(a.file); err != nil {
		return &storageError{err}
	}
	return nil
}

// parseTime accepts the ISO timestamp layout and every date format.
func parseTime(s string) (time.Time, error) {
	if t, err := timecalc.ParseISO(s); err == nil {
		return t, nil
	}
	t, err := timecalc.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
	}
	return timecalc.Normalize(t), nil
}
