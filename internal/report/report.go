// Package report summarizes a snapshot of tasks by state.
//
// Tasks are first classified into one of three Entry variants and then
// aggregated into an immutable Report holding per-state counts and the tasks
// in the order they were visited.
package report

import (
	"fmt"

	"github.com/JamesPrial/tasktracker/internal/storage"
)

// Entry is a task tagged by its state. The only implementations are
// ToDoEntry, InProgressEntry and CompletedEntry.
//
// Use Match to consume an Entry; it requires a handler for every variant.
type Entry interface {
	Task() storage.Task
	entry()
}

// ToDoEntry wraps a task that has not been started.
type ToDoEntry struct{ T storage.Task }

// InProgressEntry wraps a task that is being worked on.
type InProgressEntry struct{ T storage.Task }

// CompletedEntry wraps a finished task.
type CompletedEntry struct{ T storage.Task }

func (e ToDoEntry) Task() storage.Task       { return e.T }
func (e InProgressEntry) Task() storage.Task { return e.T }
func (e CompletedEntry) Task() storage.Task  { return e.T }

func (ToDoEntry) entry()       {}
func (InProgressEntry) entry() {}
func (CompletedEntry) entry()  {}

// Classify wraps t in the variant matching its state.
func Classify(t storage.Task) Entry {
	switch t.State {
	case storage.StateInProgress:
		return InProgressEntry{T: t}
	case storage.StateCompleted:
		return CompletedEntry{T: t}
	default:
		return ToDoEntry{T: t}
	}
}

// Match calls the handler for e's variant and returns its result.
//
// Adding a variant adds a parameter here, so every call site must be updated
// to handle it.
func Match[R any](
	e Entry,
	onToDo func(ToDoEntry) R,
	onInProgress func(InProgressEntry) R,
	onCompleted func(CompletedEntry) R,
) R {
	switch v := e.(type) {
	case ToDoEntry:
		return onToDo(v)
	case InProgressEntry:
		return onInProgress(v)
	case CompletedEntry:
		return onCompleted(v)
	}
	panic(fmt.Sprintf("report: unknown entry type %T", e))
}

// Aggregator collects entries for a report. The zero value is ready to use.
type Aggregator struct {
	entries []Entry
}

// Visit classifies t and records it.
func (a *Aggregator) Visit(t storage.Task) {
	a.entries = append(a.entries, Classify(t))
}

// VisitAll visits every task in order.
func (a *Aggregator) VisitAll(tasks []storage.Task) {
	for _, t := range tasks {
		a.Visit(t)
	}
}

// Entries returns a copy of the classified entries in visitation order.
func (a *Aggregator) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Build produces a Report from everything visited so far. The aggregator can
// keep visiting afterwards; earlier reports are unaffected.
func (a *Aggregator) Build() Report {
	r := Report{tasks: make([]storage.Task, 0, len(a.entries))}
	for _, e := range a.entries {
		Match(e,
			func(ToDoEntry) struct{} { r.todo++; return struct{}{} },
			func(InProgressEntry) struct{} { r.inProgress++; return struct{}{} },
			func(CompletedEntry) struct{} { r.completed++; return struct{}{} },
		)
		r.tasks = append(r.tasks, e.Task())
	}
	return r
}

// Of builds a report for tasks in one step.
func Of(tasks []storage.Task) Report {
	var a Aggregator
	a.VisitAll(tasks)
	return a.Build()
}

// Report holds per-state counts and the visited tasks.
type Report struct {
	tasks      []storage.Task
	todo       int
	inProgress int
	completed  int
}

// Tasks returns a copy of the tasks in visitation order.
func (r Report) Tasks() []storage.Task {
	out := make([]storage.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func (r Report) ToDo() int       { return r.todo }
func (r Report) InProgress() int { return r.inProgress }
func (r Report) Completed() int  { return r.completed }

// Total is the sum of the three counts, which equals len(Tasks()).
func (r Report) Total() int {
	return r.todo + r.inProgress + r.completed
}

// Summary renders the counts on one line.
func (r Report) Summary() string {
	return fmt.Sprintf("%d tasks: %d %s, %d %s, %d %s",
		r.Total(),
		r.todo, storage.StateToDo.Display(),
		r.inProgress, storage.StateInProgress.Display(),
		r.completed, storage.StateCompleted.Display(),
	)
}
