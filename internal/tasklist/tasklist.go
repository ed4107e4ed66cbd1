// Package tasklist orders and filters task snapshots for display.
package tasklist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/JamesPrial/tasktracker/internal/storage"
)

// Strategy compares two tasks for sorting.
type Strategy func(a, b storage.Task) int

// ByID orders tasks by ascending id.
func ByID(a, b storage.Task) int {
	return cmp.Compare(a.ID, b.ID)
}

// ByTitle orders tasks by title, ignoring case, then by id.
func ByTitle(a, b storage.Task) int {
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	return ByID(a, b)
}

// ByState orders To Do before In Progress before Completed, then by id.
func ByState(a, b storage.Task) int {
	if c := cmp.Compare(a.State, b.State); c != 0 {
		return c
	}
	return ByID(a, b)
}

var strategies = map[string]Strategy{
	"id":    ByID,
	"title": ByTitle,
	"state": ByState,
}

// SortBy returns the strategy named name ("id", "title" or "state").
// An empty name selects ByID.
func SortBy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ByID, nil
	}
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown sort order: %q. Expected 'id', 'title' or 'state'", name)
	}
	return s, nil
}

// Sort returns a sorted copy of tasks. A nil strategy means ByID.
func Sort(tasks []storage.Task, s Strategy) []storage.Task {
	if s == nil {
		s = ByID
	}
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, s)
	return out
}

// Filter reports whether a task should be shown.
type Filter func(storage.Task) bool

// Any accepts every task.
func Any() Filter {
	return func(storage.Task) bool { return true }
}

// TitleContains accepts tasks whose title contains q, ignoring case.
// An empty q accepts everything.
func TitleContains(q string) Filter {
	q = strings.ToLower(strings.TrimSpace(q))
	return func(t storage.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q)
	}
}

// InState accepts tasks in state s.
func InState(s storage.State) Filter {
	return func(t storage.Task) bool { return t.State == s }
}

// And accepts a task only if every filter does. With no filters it accepts
// everything.
func And(filters ...Filter) Filter {
	return func(t storage.Task) bool {
		for _, f := range filters {
			if f != nil && !f(t) {
				return false
			}
		}
		return true
	}
}

// Or accepts a task if any filter does. With no filters it accepts nothing.
func Or(filters ...Filter) Filter {
	return func(t storage.Task) bool {
		for _, f := range filters {
			if f != nil && f(t) {
				return true
			}
		}
		return false
	}
}

// Apply returns the tasks f accepts, in their original order. A nil f
// accepts everything.
func Apply(tasks []storage.Task, f Filter) []storage.Task {
	if f == nil {
		f = Any()
	}
	out := make([]storage.Task, 0, len(tasks))
	for _, t := range tasks {
		if f(t) {
			out = append(out, t)
		}
	}
	return out
}

// View applies f and then sorts with s.
func View(tasks []storage.Task, f Filter, s Strategy) []storage.Task {
	return Sort(Apply(tasks, f), s)
}
