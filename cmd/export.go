package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the study to a file",
	Long: `Write the study document to path, or to the current study file when no
path is given. The written file becomes the last used file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Load a study from a file",
	Long: `Load the study document at path. It becomes the last used file, so later
commands work on it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		a.file = args[0]
	}
	path, err := a.tracker.ExportJSON(a.file)
	if err != nil {
		return &storageError{err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported study to %s\n", path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	path, err := a.tracker.ImportJSON(args[0])
	if err != nil {
		return &storageError{err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported study from %s (%d semesters)\n", path, len(a.tracker.Semesters()))
	return nil
}
