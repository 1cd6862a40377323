package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var (
	startComment string
	startDetach  bool
)

var startCmd = &cobra.Command{
	Use:   "start [<semester> <module> <category>]",
	Short: "Start tracking",
	Long: `Start tracking time for a category of a module. Semester and module are
created when they do not exist yet. Without arguments the last tracked
semester, module and category are used.

In the foreground the elapsed time is shown until Enter or Ctrl+C stops the
session. With --detach the running entry is saved and "stt stop" ends it.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("accepts 0 or 3 arg(s), received %d", len(args))
		}
		return nil
	},
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startComment, "comment", "", "Optional comment")
	startCmd.Flags().BoolVar(&startDetach, "detach", false, "Save the running entry and return")
}

func runStart(cmd *cobra.Command, args []string) error {
	statusOpt, status := tracker.StatusChannel(1)
	a, err := newApp(cmd, statusOpt)
	if err != nil {
		return err
	}
	if _, _, _, running := a.tracker.Study().ActiveEntry(); running {
		return fmt.Errorf("a session is still running, use \"stt stop\" first")
	}

	semester, module, category, comment, err := startTarget(a.tracker, args)
	if err != nil {
		return err
	}
	e, err := a.tracker.StartTracking(semester, module, category, comment)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Started %s / %s / %s at %s\n", semester, module, category, e.StartTime.Format("15:04:05"))
	if startDetach {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	printHint(w, "Press Enter or Ctrl+C to stop.")
	waitForStop(ctx, cmd.InOrStdin(), status, w)

	stopped, err := a.tracker.StopTracking()
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nStopped %s. Elapsed: %s\n", stopped.Category,
		formatElapsed(int64(stopped.Duration()/time.Second)))
	return nil
}

// startTarget resolves the session to start from args, falling back to the
// last tracked session.
func startTarget(tr *tracker.Tracker, args []string) (semester, module, category, comment string, err error) {
	if len(args) == 3 {
		return args[0], args[1], args[2], startComment, nil
	}
	last, ok := tr.LastTrackingInformation()
	if !ok {
		return "", "", "", "", fmt.Errorf("nothing tracked yet, name semester, module and category")
	}
	comment = startComment
	if comment == "" {
		comment = last.Comment
	}
	return last.Semester, last.Module, last.Category, comment, nil
}

// waitForStop prints status updates until ctx ends or a line is read.
func waitForStop(ctx context.Context, in io.Reader, status <-chan time.Duration, w io.Writer) {
	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(enter)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-enter:
			return
		case d := <-status:
			fmt.Fprintf(w, "\r%s ", timecalc.FormatDurationHHMMSS(d))
		}
	}
}
