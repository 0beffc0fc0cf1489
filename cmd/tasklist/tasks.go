// Package main is the entry point for the tasklist application.
// This file contains the task subcommands.
package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"tasklist/internal/storage"

	"github.com/spf13/cobra"
)

func newAddCommand(flags *rootFlags) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add [--category NAME] TEXT...",
		Short: "Add a task",
		Long: `Adds a task to a category. The words of TEXT are joined with spaces.
Without --category the task goes to the category last selected in the UI.`,
		Example: `  tasklist add Buy milk
  tasklist add -c Study "Read chapter 3"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			target := category
			if target == "" {
				target = c.Store.Current()
			}
			task, err := c.Store.AddTask(cmd.Context(), target, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added to %s: %s\n", target, task.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category to add the task to")
	return cmd
}

func newListCommand(flags *rootFlags) *cobra.Command {
	var (
		category    string
		pendingOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks by category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			cats := c.Store.Categories()
			if category != "" {
				idx := c.Store.Snapshot().Index(category)
				if idx < 0 {
					return fmt.Errorf("%w: %s", storage.ErrCategoryNotFound, category)
				}
				cats = cats[idx : idx+1]
			}
			printCategories(cmd.OutOrStdout(), cats, c.Store.Current(), pendingOnly)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")
	cmd.Flags().BoolVarP(&pendingOnly, "pending", "p", false, "hide completed tasks")
	return cmd
}

// printCategories writes each category with its progress, pending tasks
// first. The numbers are the task positions used by the store.
func printCategories(w io.Writer, cats []storage.Category, current string, pendingOnly bool) {
	for i, cat := range cats {
		if i > 0 {
			fmt.Fprintln(w)
		}
		done := 0
		for _, t := range cat.Tasks {
			if t.Completed {
				done++
			}
		}
		marker := " "
		if cat.Name == current {
			marker = "▸"
		}
		fmt.Fprintf(w, "%s %s (%d/%d)\n", marker, cat.Name, done, len(cat.Tasks))

		if len(cat.Tasks) == 0 {
			fmt.Fprintln(w, "    (no tasks)")
			continue
		}
		for idx, t := range cat.Tasks {
			if !t.Completed {
				fmt.Fprintf(w, "  %2d. [ ] %s\n", idx+1, t.Text)
			}
		}
		if pendingOnly {
			continue
		}
		for idx, t := range cat.Tasks {
			if t.Completed {
				line := fmt.Sprintf("  %2d. [✓] %s", idx+1, t.Text)
				if t.CompletedAt != nil {
					line += fmt.Sprintf("  (done %s)", storage.FormatDate(*t.CompletedAt))
				}
				fmt.Fprintln(w, line)
			}
		}
	}
}

func newDoneCommand(flags *rootFlags) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "done [--category NAME] NUMBER",
		Short: "Toggle a task between pending and completed",
		Long: `Toggles the completed flag of a task. NUMBER is the position shown by
'tasklist list'.`,
		Example: `  tasklist done 2
  tasklist done -c Study 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid task number %q", args[0])
			}

			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			target := category
			if target == "" {
				target = c.Store.Current()
			}
			if err := c.Store.ToggleTask(cmd.Context(), target, n-1); err != nil {
				return err
			}
			task, err := c.Store.Task(target, n-1)
			if err != nil {
				return err
			}
			state := "pending"
			if task.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Marked %s: %s\n", state, task.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category of the task")
	return cmd
}

func newClearCompletedCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed tasks from every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Store.ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d completed %s\n", n, plural(n, "task", "tasks"))
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
