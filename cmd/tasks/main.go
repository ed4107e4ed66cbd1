// Package main implements the tasks command-line tool.
//
// It manages a personal task list stored in an embedded SQLite database,
// a PostgreSQL server or a flat file, and produces per-state reports.
//
// Exit codes:
//   - 0: Success
//   - 1: Error (bad arguments, configuration or storage failure)
//
// Environment variables:
//   - TASKS_HOME: Optional. Data directory (default: home directory).
//   - TASKS_BACKEND: Optional. "auto" (default), "sqlite", "postgres" or "file".
//   - TASKS_DATABASE_URL: Optional. PostgreSQL connection string.
//   - TASKS_SQLITE_PATH, TASKS_FILE_PATH: Optional. Custom store locations.
//   - LOG_LEVEL, LOG_FORMAT: Optional. Logging level and encoder.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JamesPrial/tasktracker/internal/config"
	"github.com/JamesPrial/tasktracker/internal/logging"
	"github.com/JamesPrial/tasktracker/internal/storage"
)

// app carries what every subcommand needs once startup has succeeded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.CachingBackend
}

// newRootCmd builds the command tree. Subcommands reach the store through a,
// which the persistent pre-run fills in.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tasks",
		Short:         "Track personal tasks and report on their progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.start()
		},
	}

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newReportCmd(a),
		newExportCmd(a),
	)
	return root
}

// start loads configuration, builds the logger and opens the store.
func (a *app) start() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg, logger)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.store = store
	return nil
}

// run executes the command line and returns the exit code.
//
// Accepts explicit writers to enable testing without modifying global state.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
