package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/tasktracker/internal/report"
	"github.com/JamesPrial/tasktracker/internal/storage"
	"github.com/JamesPrial/tasktracker/internal/tasklist"
)

func newListCmd(a *app) *cobra.Command {
	var sortBy, state, title string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List stored tasks, optionally filtered and sorted.

Examples:
  tasks list
  tasks list --sort title
  tasks list --state "In Progress" --title milk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := tasklist.SortBy(sortBy)
			if err != nil {
				return err
			}
			filters := []tasklist.Filter{tasklist.TitleContains(title)}
			if state != "" {
				filters = append(filters, tasklist.InState(storage.ParseState(state)))
			}

			tasks, err := a.store.GetAll()
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			view := tasklist.View(tasks, tasklist.And(filters...), order)
			out := cmd.OutOrStdout()
			if len(view) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			for _, t := range view {
				printTask(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "id", "sort order: id, title or state")
	cmd.Flags().StringVar(&state, "state", "", "only show tasks in this state")
	cmd.Flags().StringVar(&title, "title", "", "only show tasks whose title contains this text")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var description, state string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := storage.NewTask(args[0], description, storage.ParseState(state))
			if err := task.Validate(); err != nil {
				return err
			}

			added, err := a.store.Add(task)
			if err != nil {
				return fmt.Errorf("failed to add task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", added.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&state, "state", "s", storage.StateToDo.String(), "initial state")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var title, description, state string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an existing task",
		Long: `Change the title, description or state of a task.
Only the flags given are changed.

Examples:
  tasks update 3 --state Completed
  tasks update 3 --title "Buy oat milk" --description ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			task, ok, err := a.store.GetByID(id)
			if err != nil {
				return fmt.Errorf("failed to load task: %w", err)
			}
			if !ok {
				return fmt.Errorf("task %d not found", id)
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				task.Title = title
			}
			if flags.Changed("description") {
				task.Description = description
			}
			if flags.Changed("state") {
				task.State = storage.ParseState(state)
			}
			if err := task.Validate(); err != nil {
				return err
			}

			if err := a.store.Update(task); err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&state, "state", "s", "", "new state")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteByID(id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all tasks without --yes")
			}
			if err := a.store.DeleteAll(); err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted all tasks")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tasks by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildReport(a)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Summary())
			if verbose {
				for _, t := range r.Tasks() {
					printTask(out, t)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list every task")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format, outputFile string
	var strict bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the task report to a file",
		Long: `Write the task report to a file as CSV (default) or YAML.

Export failures are logged. Pass --strict to turn them into a non-zero
exit code instead.

Examples:
  tasks export -o report.csv
  tasks export --format yaml -o report.yaml --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "" {
				outputFile = "tasks_report." + strings.ToLower(format)
			}
			path, err := filepath.Abs(outputFile)
			if err != nil {
				return fmt.Errorf("failed to resolve output path: %w", err)
			}

			exporter, err := report.ExporterFor(format, a.logger)
			if err != nil {
				return err
			}

			r, err := buildReport(a)
			if err != nil {
				return err
			}

			if strict {
				if err := report.WriteFile(path, format, r); err != nil {
					return fmt.Errorf("failed to export report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", r.Total(), path)
				return nil
			}

			exporter.Export(r, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatCSV, "csv or yaml")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "output file (default: tasks_report.<format>)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the file cannot be written")
	return cmd
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func buildReport(a *app) (report.Report, error) {
	tasks, err := a.store.GetAll()
	if err != nil {
		return report.Report{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	var agg report.Aggregator
	agg.VisitAll(tasks)
	return agg.Build(), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id: %q", s)
	}
	return id, nil
}

func printTask(w io.Writer, t storage.Task) {
	fmt.Fprintf(w, "%s %s\n", t.State.Symbol(), t)
	if t.Description != "" {
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(t.Description, "\n", "\n    "))
	}
}
