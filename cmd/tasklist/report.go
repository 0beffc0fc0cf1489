// Package main is the entry point for the tasklist application.
// This file contains the report subcommand.
package main

import (
	"fmt"
	"strings"

	"tasklist/internal/fsutil"
	"tasklist/internal/reports"

	"github.com/spf13/cobra"
)

func newReportCommand(flags *rootFlags) *cobra.Command {
	var (
		category string
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze categories",
		Long: `Summarizes each category: total, completed and pending tasks, the
completion rate, and how many tasks were completed on each day.
Reports are Markdown (human-readable) or JSON (machine-readable).`,
		Example: `  tasklist report
  tasklist report --category Work
  tasklist report --format json --output report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != "markdown" && format != "md" && format != "json" {
				return fmt.Errorf("invalid format %q (use markdown or json)", format)
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := reports.NewGenerator().Generate(c.Store.Snapshot(), category)
			if err != nil {
				return err
			}

			var data []byte
			if format == "json" {
				data, err = reports.FormatJSON(report)
				if err != nil {
					return fmt.Errorf("formatting report: %w", err)
				}
				data = append(data, '\n')
			} else {
				data = []byte(reports.FormatMarkdown(report))
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := fsutil.WriteFileAtomic(output, data, 0644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Report written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only analyze this category")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
