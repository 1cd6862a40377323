package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/logging"
	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/msgraph"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

var (
	outlookSyncFrom     string
	outlookSyncTo       string
	outlookSyncDate     string
	outlookSyncToday    bool
	outlookSyncDryRun   bool
	outlookSyncSemester string
	outlookSyncModule   string
	outlookSyncTZ       string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as entries",
	Long: `Import Outlook calendar events as stopped entries. The event subject
becomes the category. Events already imported are updated when subject or
times changed. Cancelled, all-day, private and free events are skipped.`,
	Args: cobra.NoArgs,
	RunE: runOutlookSync,
}

func init() {
	f := outlookSyncCmd.Flags()
	f.StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	f.StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	f.StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	f.BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	f.BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	f.StringVar(&outlookSyncSemester, "semester", "", "Semester receiving the events (default from config)")
	f.StringVar(&outlookSyncModule, "module", "", "Module receiving the events (default from config)")
	f.StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

func parseDay(flag, value string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid --%s value %q", model.ErrInvalidValue, flag, value)
	}
	return d, nil
}

// syncRange computes the days to sync from the flags. The default is the
// day of now.
func syncRange(now time.Time, date, from, to string) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := parseDay("date", date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case from != "" || to != "":
		if from == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --from is required when --to is specified", model.ErrInvalidArgument)
		}
		f, err := parseDay("from", from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end := now
		if to != "" {
			if end, err = parseDay("to", to); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if end.Before(f) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --to before --from", model.ErrInvalidValue)
		}
		return timecalc.StartOfDay(f), timecalc.EndOfDay(end), nil
	}
	return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	from, to, err := syncRange(timecalc.Now(), outlookSyncDate, outlookSyncFrom, outlookSyncTo)
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	opts := msgraph.SyncOptions{
		Semester: a.cfg.Outlook.Semester,
		Module:   a.cfg.Outlook.Module,
		Timezone: a.cfg.Outlook.Timezone,
		DryRun:   outlookSyncDryRun,
	}
	if outlookSyncSemester != "" {
		opts.Semester = outlookSyncSemester
	}
	if outlookSyncModule != "" {
		opts.Module = outlookSyncModule
	}
	if outlookSyncTZ != "" {
		opts.Timezone = outlookSyncTZ
	}

	w := cmd.OutOrStdout()
	dryTag := ""
	if opts.DryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(w, "Syncing Outlook events (%s → %s) into %s / %s%s...\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"), opts.Semester, opts.Module, dryTag)
	fmt.Fprintln(w)

	ctx := cmd.Context()
	logger := logging.Component(a.log, "msgraph")
	auth, err := msgraph.NewAuthenticator(a.cfg.Outlook.TenantID, a.cfg.Outlook.ClientID, w, logger)
	if err != nil {
		return err
	}
	tok, err := auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	client := msgraph.NewClient(ctx, auth.TokenSource(ctx, tok))

	events, err := client.GetCalendarView(ctx, from, to, opts.Timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	syncer := &msgraph.Syncer{Tracker: a.tracker, Out: w, Logger: logger}
	result := syncer.Sync(events, opts)
	if !opts.DryRun && result.Imported+result.Updated > 0 {
		if err := a.save(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d imported\n", result.Imported)
	fmt.Fprintf(w, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(w, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(w, "  %d errors\n", result.Errors)
		return &storageError{fmt.Errorf("%d events could not be imported", result.Errors)}
	}
	return nil
}
