// Package main is the entry point for the tasklist application.
// This file contains the migrate subcommand.
package main

import (
	"fmt"
	"path/filepath"

	"tasklist/internal/app"
	"tasklist/internal/storage"

	"github.com/spf13/cobra"
)

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	var (
		from  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a flat-file tasks.json into the database",
		Long: `Copies a tasks.json document into the SQLite database.

Without --from, the legacy tasks.json in the data directory is imported
when the database is still empty and then renamed to tasks.json.migrated.
This also happens automatically on start.

With --from, the given file is imported. A database that already holds
data is left alone unless --force is given, which replaces its contents.`,
		Example: `  tasklist migrate
  tasklist migrate --from ~/old/tasks.json --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.openWith(cmd.Context(), app.Options{SkipMigration: true})
			if err != nil {
				return err
			}
			defer c.Close()

			if c.DB == nil {
				return fmt.Errorf("migrate needs the sqlite backend (storage.backend is %q)", c.Config.Storage.Backend)
			}

			var res storage.MigrationResult
			if from == "" {
				res, err = storage.MigrateLegacy(cmd.Context(), c.DB, c.Config.GetDataDir())
			} else {
				path, absErr := filepath.Abs(from)
				if absErr != nil {
					return absErr
				}
				res, err = storage.ImportFile(cmd.Context(), c.DB, path, force)
			}
			if err != nil {
				return fmt.Errorf("migrating %s: %w", res.Source, err)
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Nothing migrated from %s (no file, empty document, or the database already holds data).\n", res.Source)
				return nil
			}
			c.Logger.Info("migrated", "source", res.Source, "categories", res.Categories, "tasks", res.Tasks)
			fmt.Fprintf(out, "✓ Migrated %d %s in %d %s from %s\n",
				res.Tasks, plural(res.Tasks, "task", "tasks"),
				res.Categories, plural(res.Categories, "category", "categories"),
				res.Source)
			if res.Theme != "" {
				fmt.Fprintf(out, "  Theme: %s\n", res.Theme)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "flat-file document to import (default: tasks.json in the data directory)")
	cmd.Flags().BoolVar(&force, "force", false, "replace existing database contents")
	return cmd
}
