// Package main is the entry point for the tasklist application.
// Without arguments it opens the terminal UI; subcommands script the same
// task store from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tasklist/internal/app"
	"tasklist/internal/ui"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Command group IDs.
const (
	groupTasks = "tasks"
	groupData  = "data"
)

// runTUI starts the interactive UI. Tests replace it.
var runTUI = ui.Run

const rootLong = `tasklist - A categorized to-do list for your terminal

Tasks live in categories (Work, Personal, Study, Other by default). Each task
has its text, a completed flag and the dates it was created and completed.

Run without arguments to open the interactive UI:

    Tab          Switch between categories and tasks
    j/k, ↓/↑     Navigate
    a            Add a task or category
    Space        Toggle done
    e / r        Edit task / rename category
    m            Move task to another category
    K/J          Reorder categories
    x            Delete (with confirmation)
    Enter        Select category / show task details
    C            Clear completed tasks
    t            Toggle light/dark theme
    b / E        Backup / export
    ?            Help
    q            Quit

DATA STORAGE:
    Data is kept in ~/.tasklist/ (override with data_dir or --data-dir):
        tasks.db      - SQLite database (default backend)
        tasks.json    - Flat-file document (json backend, or legacy data)
        backups/      - Timestamped backups
        tasklist.log  - Log file

CONFIGURATION:
    Optional config file: ~/.config/tasklist/config.yaml (or config.toml)`

// rootFlags are the persistent flags every subcommand shares.
type rootFlags struct {
	configPath string
	dataDir    string
}

// open builds the application context from the flags.
func (f *rootFlags) open(ctx context.Context) (*app.Context, error) {
	return f.openWith(ctx, app.Options{})
}

func (f *rootFlags) openWith(ctx context.Context, opts app.Options) (*app.Context, error) {
	opts.ConfigPath = f.configPath
	opts.DataDir = f.dataDir
	c, err := app.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return c, nil
}

// newRootCommand creates the command tree.
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "tasklist",
		Short:   "A categorized to-do list for your terminal",
		Long:    rootLong,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:    cobra.NoArgs,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if c.LoadErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (starting with default categories)\n", c.LoadErr)
			}
			if err := runTUI(cmd.Context(), c.UIOptions()); err != nil {
				return fmt.Errorf("running app: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/tasklist/config.yaml)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default ~/.tasklist)")

	root.AddGroup(
		&cobra.Group{ID: groupTasks, Title: "Task Commands:"},
		&cobra.Group{ID: groupData, Title: "Data Commands:"},
	)

	for _, cmd := range []*cobra.Command{
		newAddCommand(flags),
		newListCommand(flags),
		newDoneCommand(flags),
		newClearCompletedCommand(flags),
		newReportCommand(flags),
	} {
		cmd.GroupID = groupTasks
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		newBackupCommand(flags),
		newRestoreCommand(flags),
		newExportCommand(flags),
		newImportCommand(flags),
		newMigrateCommand(flags),
	} {
		cmd.GroupID = groupData
		root.AddCommand(cmd)
	}
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
