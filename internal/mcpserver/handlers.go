package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/JamesPrial/tasktracker/internal/pathutil"
	"github.com/JamesPrial/tasktracker/internal/report"
	"github.com/JamesPrial/tasktracker/internal/storage"
	"github.com/JamesPrial/tasktracker/internal/tasklist"
)

// TaskHandlers serves the task tools from a single cached store.
type TaskHandlers struct {
	store   *storage.CachingBackend
	dataDir string
	logger  *zap.Logger
}

// NewTaskHandlers returns handlers backed by store. Export paths are resolved
// inside dataDir.
func NewTaskHandlers(store *storage.CachingBackend, dataDir string, logger *zap.Logger) *TaskHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandlers{store: store, dataDir: dataDir, logger: logger}
}

// HandleListTasks lists tasks.
// Parameters:
//   - state (string, optional): only tasks in this state
//   - title (string, optional): title substring, case-insensitive
//   - sort (string, optional): id, title or state
func (h *TaskHandlers) HandleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	order, err := tasklist.SortBy(stringArg(args, "sort"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filters := []tasklist.Filter{tasklist.TitleContains(stringArg(args, "title"))}
	if s := stringArg(args, "state"); s != "" {
		filters = append(filters, tasklist.InState(storage.ParseState(s)))
	}

	tasks, err := h.store.GetAll()
	if err != nil {
		return h.storeError("list tasks", err), nil
	}

	view := tasklist.View(tasks, tasklist.And(filters...), order)
	if len(view) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}
	return mcp.NewToolResultText(formatTasks(view)), nil
}

// HandleGetTask returns one task.
// Parameters:
//   - id (number, required)
func (h *TaskHandlers) HandleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	task, ok, err := h.store.GetByID(id)
	if err != nil {
		return h.storeError("get task", err), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Task %d not found", id)), nil
	}
	return mcp.NewToolResultText(formatTask(task)), nil
}

// HandleAddTask creates a task.
// Parameters:
//   - title (string, required)
//   - description (string, optional)
//   - state (string, optional, default ToDo)
func (h *TaskHandlers) HandleAddTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("Missing required parameters"), nil
	}

	task := storage.NewTask(
		stringArg(args, "title"),
		stringArg(args, "description"),
		storage.ParseState(stringArg(args, "state")),
	)
	if err := task.Validate(); err != nil {
		return mcp.NewToolResultError("Missing required parameter: title"), nil
	}

	added, err := h.store.Add(task)
	if err != nil {
		return h.storeError("add task", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added task %d.\n%s", added.ID, formatTask(added))), nil
}

// HandleUpdateTask changes fields of an existing task.
// Parameters:
//   - id (number, required)
//   - title, description, state (string, optional): omitted fields are kept
func (h *TaskHandlers) HandleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, errResult := requireID(args)
	if errResult != nil {
		return errResult, nil
	}

	task, ok, err := h.store.GetByID(id)
	if err != nil {
		return h.storeError("update task", err), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Task %d not found", id)), nil
	}

	if v, present := args["title"].(string); present {
		task.Title = v
	}
	if v, present := args["description"].(string); present {
		task.Description = v
	}
	if v, present := args["state"].(string); present {
		task.State = storage.ParseState(v)
	}
	if err := task.Validate(); err != nil {
		return mcp.NewToolResultError("Title cannot be empty"), nil
	}

	if err := h.store.Update(task); err != nil {
		return h.storeError("update task", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated task %d.\n%s", task.ID, formatTask(task))), nil
}

// HandleDeleteTask removes a task by id.
// Parameters:
//   - id (number, required)
func (h *TaskHandlers) HandleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	if err := h.store.DeleteByID(id); err != nil {
		return h.storeError("delete task", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted task %d.", id)), nil
}

// HandleDeleteAllTasks removes every task.
// Parameters:
//   - confirm (boolean, required): must be true
func (h *TaskHandlers) HandleDeleteAllTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm, _ := request.GetArguments()["confirm"].(bool)
	if !confirm {
		return mcp.NewToolResultError("Refusing to delete all tasks without confirm=true"), nil
	}

	if err := h.store.DeleteAll(); err != nil {
		return h.storeError("delete all tasks", err), nil
	}
	return mcp.NewToolResultText("Deleted all tasks."), nil
}

// HandleTaskReport summarizes tasks by state.
func (h *TaskHandlers) HandleTaskReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := h.buildReport()
	if err != nil {
		return h.storeError("build report", err), nil
	}
	return mcp.NewToolResultText(formatReport(r)), nil
}

// HandleExportReport writes the report to a file under the data directory.
// Parameters:
//   - path (string, required): relative to the data directory
//   - format (string, optional): csv (default) or yaml
func (h *TaskHandlers) HandleExportReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("Missing required parameters"), nil
	}

	rawPath := stringArg(args, "path")
	if rawPath == "" {
		return mcp.NewToolResultError("Missing required parameter: path"), nil
	}
	format := stringArg(args, "format")
	if format == "" {
		format = report.FormatCSV
	}

	target, err := pathutil.ResolveSafePath(h.dataDir, rawPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid path: %v", err)), nil
	}

	r, err := h.buildReport()
	if err != nil {
		return h.storeError("build report", err), nil
	}

	if err := report.WriteFile(target, format, r); err != nil {
		h.logger.Error("report export failed",
			zap.String("path", target),
			zap.String("format", format),
			zap.Error(err),
		)
		return mcp.NewToolResultError(fmt.Sprintf("Export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Exported %d task(s) to %s", r.Total(), target)), nil
}

// HandleCacheStats reports the cache counters.
func (h *TaskHandlers) HandleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.store.Stats()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Cached tasks: %d\nHits: %.0f\nMisses: %.0f\nInvalidations: %.0f",
		s.Entries, s.Hits, s.Misses, s.Invalidations,
	)), nil
}

func (h *TaskHandlers) buildReport() (report.Report, error) {
	tasks, err := h.store.GetAll()
	if err != nil {
		return report.Report{}, err
	}
	return report.Of(tasks), nil
}

// storeError logs a backend failure and turns it into a tool error.
func (h *TaskHandlers) storeError(action string, err error) *mcp.CallToolResult {
	h.logger.Error("storage operation failed", zap.String("action", action), zap.Error(err))
	var pErr *storage.PersistenceError
	if errors.As(err, &pErr) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, pErr.Err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// requireID extracts a positive integer id. JSON numbers arrive as float64.
func requireID(args map[string]any) (int64, *mcp.CallToolResult) {
	raw, ok := args["id"]
	if !ok {
		return 0, mcp.NewToolResultError("Missing required parameter: id")
	}

	var id int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, mcp.NewToolResultError(fmt.Sprintf("Invalid id: %v", v))
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	default:
		return 0, mcp.NewToolResultError(fmt.Sprintf("Invalid id: %v", raw))
	}
	if id <= 0 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("Invalid id: %d", id))
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

func formatTask(t storage.Task) string {
	line := t.State.Symbol() + " " + t.String()
	if t.Description != "" {
		line += "\n    " + strings.ReplaceAll(t.Description, "\n", "\n    ")
	}
	return line
}

func formatTasks(tasks []storage.Task) string {
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatTask(t))
	}
	return b.String()
}

func formatReport(r report.Report) string {
	return fmt.Sprintf("Total: %d\n%s: %d\n%s: %d\n%s: %d",
		r.Total(),
		storage.StateToDo.Display(), r.ToDo(),
		storage.StateInProgress.Display(), r.InProgress(),
		storage.StateCompleted.Display(), r.Completed(),
	)
}
