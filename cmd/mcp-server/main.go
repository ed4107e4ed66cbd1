// Package main implements the MCP server for the task tracker.
//
// This server exposes the task store and reports as tools. Communicates via
// stdio JSON-RPC (Model Context Protocol); logs go to stderr. Configuration
// comes from the same environment variables as the tasks command.
package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JamesPrial/tasktracker/internal/config"
	"github.com/JamesPrial/tasktracker/internal/logging"
	"github.com/JamesPrial/tasktracker/internal/mcpserver"
	"github.com/JamesPrial/tasktracker/internal/storage"
)

func run() int {
	errLogger := log.New(os.Stderr, "[mcp-server] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		errLogger.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		errLogger.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.Open(cfg, logger, storage.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to open task store", zap.Error(err))
		return 1
	}

	srv, err := mcpserver.NewServer(store, cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}

	logger.Info("serving MCP over stdio", zap.String("data_dir", cfg.DataDir))
	if err := server.ServeStdio(srv, server.WithErrorLogger(errLogger)); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
