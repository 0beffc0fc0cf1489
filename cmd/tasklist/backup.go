// Package main is the entry point for the tasklist application.
// This file contains the backup subcommand.
package main

import (
	"fmt"
	"io"

	"tasklist/internal/backup"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newBackupCommand(flags *rootFlags) *cobra.Command {
	var (
		list  bool
		prune int
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and manage backups",
		Long: `Creates a timestamped backup of all categories and tasks.
Backups are stored in the backups/ directory of the data directory and can
be restored with 'tasklist restore'.`,
		Example: `  # Create a new backup
  tasklist backup

  # List all available backups
  tasklist backup --list

  # Keep only the 10 most recent backups
  tasklist backup --prune 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list && cmd.Flags().Changed("prune") {
				return fmt.Errorf("--list and --prune cannot be used together")
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			switch {
			case list:
				return listBackups(out, c.Backups)
			case cmd.Flags().Changed("prune"):
				n, err := c.Backups.Prune(prune)
				if err != nil {
					return fmt.Errorf("pruning backups: %w", err)
				}
				fmt.Fprintf(out, "✓ Removed %d old %s\n", n, plural(n, "backup", "backups"))
				return nil
			}

			name, err := c.Backups.Create(c.Store.Snapshot())
			if err != nil {
				return fmt.Errorf("creating backup: %w", err)
			}
			info, err := c.Backups.Get(name)
			if err != nil {
				return fmt.Errorf("reading backup info: %w", err)
			}
			c.Logger.Info("backup created", "name", name, "tasks", info.Tasks)

			fmt.Fprintf(out, "✓ Backup created: %s\n", name)
			fmt.Fprintf(out, "  Categories: %d, Tasks: %d (%d completed)\n", info.Categories, info.Tasks, info.Completed)
			fmt.Fprintf(out, "  Location: %s\n", info.Path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available backups")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the N most recent backups")
	return cmd
}

// listBackups prints all available backups, newest first.
func listBackups(out io.Writer, manager *backup.Manager) error {
	backups, err := manager.List()
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups available.")
		fmt.Fprintln(out, "Run 'tasklist backup' to create one.")
		return nil
	}

	fmt.Fprintln(out, "Available backups:")
	for _, b := range backups {
		age := humanize.Time(b.CreatedAt)
		if b.Corrupt {
			fmt.Fprintf(out, "  %s  (%s)   unreadable\n", b.Name, age)
			continue
		}
		fmt.Fprintf(out, "  %s  (%s, %s)   Categories: %d, Tasks: %d\n",
			b.Name, age, humanize.Bytes(uint64(b.Size)), b.Categories, b.Tasks)
	}
	return nil
}
