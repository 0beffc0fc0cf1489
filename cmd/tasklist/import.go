// Package main is the entry point for the tasklist application.
// This file contains the import subcommand.
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tasklist/internal/importer"
	"tasklist/internal/storage"

	"github.com/spf13/cobra"
)

const importLong = `Imports tasks from a tasklist export or another productivity tool.

FORMATS:
    json         tasklist document (default)
    todoist      Todoist CSV backup (Settings → Backups)
    taskwarrior  Output of 'task export' (JSON array or one object per line)

MODES:
    json documents are merged: a category in the file replaces the category
    of the same name, other categories are kept. Todoist and Taskwarrior
    tasks are appended to existing categories. --replace discards all
    current data first; a backup is written before any import.

FIELD MAPPING:
    Todoist:
      - CONTENT → task text
      - PROJECT → category (or --category)
      - Notes and sections are skipped

    Taskwarrior:
      - description → task text
      - project → category (or --category)
      - entry → created date, end → completed date
      - status: completed → marks task as done
      - Deleted tasks are skipped`

func newImportCommand(flags *rootFlags) *cobra.Command {
	var (
		format   string
		category string
		replace  bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "import [--format FORMAT] PATH",
		Short: "Import tasks from a file",
		Long:  importLong,
		Example: `  # Import a tasklist export
  tasklist import tasks_export.json

  # Import from Taskwarrior
  task export > tw.json
  tasklist import --format taskwarrior tw.json

  # Preview a Todoist import into a single category
  tasklist import --format todoist --category Inbox --dry-run backup.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := importer.New(format, importer.Options{Category: category, Now: time.Now})
			if err != nil {
				return err
			}
			doc, err := importer.ParseFile(imp, args[0])
			if err != nil {
				return err
			}
			if len(doc.Categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found to import.")
				return nil
			}

			mode := importer.DefaultMode(format)
			if replace {
				mode = importer.ModeReplace
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				printImportPreview(out, doc, importer.Preview(c.Store.Snapshot(), doc, mode))
				return nil
			}

			safety, err := c.Backups.Create(c.Store.Snapshot())
			if err != nil {
				return fmt.Errorf("creating safety backup: %w", err)
			}
			res, err := importer.Apply(cmd.Context(), c.Store, doc, mode)
			if err != nil {
				return fmt.Errorf("importing (safety backup: %s): %w", safety, err)
			}
			c.Logger.Info("imported", "source", args[0], "format", imp.Name(), "mode", mode.String(), "tasks", res.Tasks)

			fmt.Fprintln(out, "Import complete!")
			fmt.Fprintf(out, "  Imported: %d %s (%d completed) in %d %s\n",
				res.Tasks, plural(res.Tasks, "task", "tasks"), res.Completed,
				res.Categories, plural(res.Categories, "category", "categories"))
			if len(res.NewCategories) > 0 && mode != importer.ModeReplace {
				fmt.Fprintf(out, "  New categories: %s\n", strings.Join(res.NewCategories, ", "))
			}
			fmt.Fprintf(out, "  Mode: %s, safety backup: %s\n", mode, safety)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "input format: "+strings.Join(importer.SupportedFormats(), ", "))
	cmd.Flags().StringVarP(&category, "category", "c", "", "category for tasks without a project (default \""+importer.DefaultCategory+"\")")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace all current data instead of merging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview import without making changes")
	return cmd
}

// printImportPreview lists what an import would do, showing at most 20 tasks.
func printImportPreview(out io.Writer, doc *storage.Document, res importer.Result) {
	fmt.Fprintf(out, "Preview: %d %s in %d %s (%s)\n",
		res.Tasks, plural(res.Tasks, "task", "tasks"),
		res.Categories, plural(res.Categories, "category", "categories"), res.Mode)
	fmt.Fprintln(out, "────────────────────────────")

	shown := 0
	for _, c := range doc.Categories {
		for _, t := range c.Tasks {
			if shown == 20 {
				break
			}
			line := fmt.Sprintf("  [%s] %s", c.Name, t.Text)
			if t.Completed {
				line += " (done)"
			}
			fmt.Fprintln(out, line)
			shown++
		}
	}
	if res.Tasks > shown {
		fmt.Fprintf(out, "  ... and %d more\n", res.Tasks-shown)
	}
	if len(res.NewCategories) > 0 && res.Mode != importer.ModeReplace {
		fmt.Fprintf(out, "New categories: %s\n", strings.Join(res.NewCategories, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run without --dry-run to import.")
}
