// Package mcpserver exposes the task store and reports as MCP tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// listTasksTool returns a tool definition for listing tasks.
func listTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List stored tasks. Optionally filter by state or title and choose the sort order."),
		mcp.WithString("state",
			mcp.Description("Only show tasks in this state (ToDo, InProgress or Completed)")),
		mcp.WithString("title",
			mcp.Description("Only show tasks whose title contains this text (case-insensitive)")),
		mcp.WithString("sort",
			mcp.Description("Sort order: id (default), title or state"),
			mcp.Enum("id", "title", "state")),
	)
}

// getTaskTool returns a tool definition for fetching one task.
func getTaskTool() mcp.Tool {
	return mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
	)
}

// addTaskTool returns a tool definition for creating a task.
func addTaskTool() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription("Create a task. The store assigns its id."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title")),
		mcp.WithString("description",
			mcp.Description("Longer free-form description")),
		mcp.WithString("state",
			mcp.Description("Initial state (defaults to ToDo)")),
	)
}

// updateTaskTool returns a tool definition for changing a task.
func updateTaskTool() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription("Change an existing task. Omitted fields keep their current value."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
		mcp.WithString("title",
			mcp.Description("New title")),
		mcp.WithString("description",
			mcp.Description("New description")),
		mcp.WithString("state",
			mcp.Description("New state (ToDo, InProgress or Completed)")),
	)
}

// deleteTaskTool returns a tool definition for removing one task.
func deleteTaskTool() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task by id. Deleting an unknown id succeeds."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
	)
}

// deleteAllTasksTool returns a tool definition for clearing the store.
func deleteAllTasksTool() mcp.Tool {
	return mcp.NewTool("delete_all_tasks",
		mcp.WithDescription("Delete every task. Requires confirm=true."),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to proceed")),
	)
}

// taskReportTool returns a tool definition for the per-state summary.
func taskReportTool() mcp.Tool {
	return mcp.NewTool("task_report",
		mcp.WithDescription("Summarize all tasks by state."),
	)
}

// exportReportTool returns a tool definition for writing a report file.
func exportReportTool() mcp.Tool {
	return mcp.NewTool("export_report",
		mcp.WithDescription("Write the task report to a file inside the data directory."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Target file, relative to the data directory")),
		mcp.WithString("format",
			mcp.Description("csv (default) or yaml"),
			mcp.Enum("csv", "yaml")),
	)
}

// cacheStatsTool returns a tool definition for inspecting the cache.
func cacheStatsTool() mcp.Tool {
	return mcp.NewTool("cache_stats",
		mcp.WithDescription("Show cache hit, miss and invalidation counters."),
	)
}
