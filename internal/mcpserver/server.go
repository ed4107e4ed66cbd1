package mcpserver

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JamesPrial/tasktracker/internal/storage"
)

const (
	serverName    = "tasktracker"
	serverVersion = "1.0.0"
)

// NewServer creates an MCP server with every task tool registered against
// store.
func NewServer(store *storage.CachingBackend, dataDir string, logger *zap.Logger) (*server.MCPServer, error) {
	if store == nil {
		return nil, errors.New("task store is required")
	}
	h := NewTaskHandlers(store, dataDir, logger)

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	// Task CRUD
	s.AddTool(listTasksTool(), h.HandleListTasks)
	s.AddTool(getTaskTool(), h.HandleGetTask)
	s.AddTool(addTaskTool(), h.HandleAddTask)
	s.AddTool(updateTaskTool(), h.HandleUpdateTask)
	s.AddTool(deleteTaskTool(), h.HandleDeleteTask)
	s.AddTool(deleteAllTasksTool(), h.HandleDeleteAllTasks)

	// Reports
	s.AddTool(taskReportTool(), h.HandleTaskReport)
	s.AddTool(exportReportTool(), h.HandleExportReport)

	// Diagnostics
	s.AddTool(cacheStatsTool(), h.HandleCacheStats)

	return s, nil
}
