package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesPrial/tasktracker/internal/report"
	"github.com/JamesPrial/tasktracker/internal/storage"
)

func task(id int64, title string, s storage.State) storage.Task {
	return storage.Task{ID: id, Title: title, State: s}
}

// ---------------------------------------------------------------------------
// Classify / Match
// ---------------------------------------------------------------------------

func Test_Classify_PicksVariantByState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state storage.State
		want  string
	}{
		{storage.StateToDo, "todo"},
		{storage.StateInProgress, "in-progress"},
		{storage.StateCompleted, "completed"},
	}

	for _, tt := range tests {
		tk := task(1, "t", tt.state)
		e := report.Classify(tk)
		got := report.Match(e,
			func(report.ToDoEntry) string { return "todo" },
			func(report.InProgressEntry) string { return "in-progress" },
			func(report.CompletedEntry) string { return "completed" },
		)
		assert.Equal(t, tt.want, got, "state %v", tt.state)
		assert.Equal(t, tk, e.Task())
	}
}

func Test_Match_PassesTheWrappedTask(t *testing.T) {
	t.Parallel()

	tk := task(5, "Write report", storage.StateInProgress)
	title := report.Match(report.Classify(tk),
		func(e report.ToDoEntry) string { return "wrong" },
		func(e report.InProgressEntry) string { return e.T.Title },
		func(e report.CompletedEntry) string { return "wrong" },
	)
	assert.Equal(t, "Write report", title)
}

// ---------------------------------------------------------------------------
// Aggregator / Report
// ---------------------------------------------------------------------------

func Test_Aggregator_CountsByState(t *testing.T) {
	t.Parallel()

	var a report.Aggregator
	a.Visit(task(1, "a", storage.StateToDo))
	a.Visit(task(2, "b", storage.StateToDo))
	a.Visit(task(3, "c", storage.StateCompleted))

	r := a.Build()
	assert.Equal(t, 2, r.ToDo())
	assert.Equal(t, 0, r.InProgress())
	assert.Equal(t, 1, r.Completed())
	assert.Equal(t, 3, r.Total())

	titles := make([]string, 0, 3)
	for _, tk := range r.Tasks() {
		titles = append(titles, tk.Title)
	}
	assert.Equal(t, []string{"a", "b", "c"}, titles)
}

func Test_Aggregator_EmptyReport(t *testing.T) {
	t.Parallel()

	var a report.Aggregator
	r := a.Build()
	assert.Equal(t, 0, r.Total())
	assert.NotNil(t, r.Tasks())
	assert.Empty(t, r.Tasks())
	assert.Empty(t, a.Entries())
}

func Test_Report_TotalMatchesTaskCount(t *testing.T) {
	t.Parallel()

	states := []storage.State{
		storage.StateCompleted, storage.StateInProgress, storage.StateToDo,
		storage.StateInProgress, storage.StateCompleted, storage.StateCompleted,
	}
	tasks := make([]storage.Task, 0, len(states))
	for i, s := range states {
		tasks = append(tasks, task(int64(i+1), "t", s))
	}

	r := report.Of(tasks)
	assert.Equal(t, len(tasks), r.Total())
	assert.Equal(t, len(r.Tasks()), r.ToDo()+r.InProgress()+r.Completed())
	assert.Equal(t, 1, r.ToDo())
	assert.Equal(t, 2, r.InProgress())
	assert.Equal(t, 3, r.Completed())
}

func Test_Aggregator_EntriesKeepVisitOrder(t *testing.T) {
	t.Parallel()

	var a report.Aggregator
	a.VisitAll([]storage.Task{
		task(1, "a", storage.StateCompleted),
		task(2, "b", storage.StateToDo),
	})

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.IsType(t, report.CompletedEntry{}, entries[0])
	assert.IsType(t, report.ToDoEntry{}, entries[1])
}

func Test_Report_IsImmutable(t *testing.T) {
	t.Parallel()

	var a report.Aggregator
	a.Visit(task(1, "original", storage.StateToDo))
	r := a.Build()

	got := r.Tasks()
	got[0].Title = "mutated"
	a.Visit(task(2, "later", storage.StateCompleted))

	assert.Equal(t, "original", r.Tasks()[0].Title)
	assert.Equal(t, 1, r.Total())
	assert.Equal(t, 2, a.Build().Total())
}

func Test_Report_Summary(t *testing.T) {
	t.Parallel()

	r := report.Of([]storage.Task{
		task(1, "a", storage.StateToDo),
		task(2, "b", storage.StateInProgress),
		task(3, "c", storage.StateCompleted),
		task(4, "d", storage.StateCompleted),
	})
	assert.Equal(t, "4 tasks: 1 To Do, 1 In Progress, 2 Completed", r.Summary())
}
