// Package main is the entry point for the tasklist application.
// This file contains the restore subcommand.
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/backup"

	"github.com/spf13/cobra"
)

func newRestoreCommand(flags *rootFlags) *cobra.Command {
	var (
		latest bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "restore [--latest | BACKUP_NAME]",
		Short: "Restore data from a backup",
		Long: `Replaces all categories and tasks with the contents of a backup.
A safety backup of the current data is created before restoring.
Use 'tasklist backup --list' to see available backups.`,
		Example: `  # Restore from a specific backup
  tasklist restore backup_20250314_093000.json

  # Restore from the most recent backup without asking
  tasklist restore --latest --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest == (len(args) == 1) {
				return fmt.Errorf("specify a backup name or --latest")
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			var info *backup.Info
			if latest {
				backups, err := c.Backups.List()
				if err != nil {
					return fmt.Errorf("listing backups: %w", err)
				}
				for i := range backups {
					if !backups[i].Corrupt {
						info = &backups[i]
						break
					}
				}
				if info == nil {
					return backup.ErrNoBackups
				}
			} else {
				info, err = c.Backups.Get(args[0])
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Restoring from backup: %s\n", info.Name)
			fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Categories: %d, Tasks: %d\n", info.Categories, info.Tasks)
			fmt.Fprintln(out)

			if !force {
				ok, err := confirm(cmd.InOrStdin(), out, "⚠ This will overwrite your current data.\nContinue? [y/N] ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Restore cancelled.")
					return nil
				}
			}

			safety, err := c.Backups.Restore(cmd.Context(), c.Store, info.Name)
			if safety != "" {
				fmt.Fprintf(out, "✓ Safety backup: %s\n", safety)
			}
			if err != nil {
				return fmt.Errorf("restoring backup: %w", err)
			}
			c.Logger.Info("restored backup", "name", info.Name, "safety", safety)
			fmt.Fprintf(out, "✓ Restored successfully from %s\n", info.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "restore from the most recent backup")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}

// confirm asks a yes/no question; anything but y or yes means no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
