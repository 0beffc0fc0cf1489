// Package main is the entry point for the tasklist application.
// This file contains the export subcommand.
package main

import (
	"fmt"

	"tasklist/internal/importer"

	"github.com/spf13/cobra"
)

func newExportCommand(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Write all tasks to a JSON file",
		Long: `Writes every category and task to PATH in the tasklist JSON format:
an object keyed by category name, in display order. The file can be read
back with 'tasklist import'.`,
		Example: `  tasklist export ~/tasks_export.json
  tasklist export --force tasks.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			path := args[0]
			doc := c.Store.Snapshot()
			write := importer.ExportIfAbsent
			if force {
				write = importer.Export
			}
			if err := write(path, doc); err != nil {
				return fmt.Errorf("%w (use --force to overwrite)", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d %s in %d %s to %s\n",
				doc.TaskCount(), plural(doc.TaskCount(), "task", "tasks"),
				len(doc.Categories), plural(len(doc.Categories), "category", "categories"),
				path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
