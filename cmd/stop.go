package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ok, err := a.tracker.ResumeRunning()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no running session to stop")
	}
	sem, mod, _, _ := a.tracker.Current()
	stopped, err := a.tracker.StopTracking()
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s / %s / %s. Elapsed: %s\n",
		sem.Name, mod.Name, stopped.Category, formatElapsed(int64(stopped.Duration()/time.Second)))
	return nil
}
