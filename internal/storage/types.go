// Package storage provides the task model and its persistence backends.
//
// This package defines the Task record, the Backend contract every storage
// implementation satisfies, the relational (SQLite, PostgreSQL) and flat-file
// backends, the caching proxy that decorates them, and the selector that picks
// one at startup. Callers only ever hold the caching proxy returned by Open.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTitle is returned by Task.Validate when the title is blank.
var ErrEmptyTitle = errors.New("title cannot be empty")

// State is the lifecycle state of a task.
type State int

const (
	// StateToDo is a task that has not been started.
	StateToDo State = iota
	// StateInProgress is a task that is currently being worked on.
	StateInProgress
	// StateCompleted is a finished task.
	StateCompleted
)

// States returns every state in declaration order.
func States() []State {
	return []State{StateToDo, StateInProgress, StateCompleted}
}

// String returns the canonical token stored by the relational backends.
func (s State) String() string {
	switch s {
	case StateInProgress:
		return "InProgress"
	case StateCompleted:
		return "Completed"
	default:
		return "ToDo"
	}
}

// Display returns the human-readable label (e.g., "In Progress").
//
// The flat-file backend and the report exporters write this form.
func (s State) Display() string {
	switch s {
	case StateInProgress:
		return "In Progress"
	case StateCompleted:
		return "Completed"
	default:
		return "To Do"
	}
}

// Symbol returns a compact marker for list output: "[ ]", "[~]" or "[x]".
func (s State) Symbol() string {
	switch s {
	case StateInProgress:
		return "[~]"
	case StateCompleted:
		return "[x]"
	default:
		return "[ ]"
	}
}

// ParseState decodes a stored state token.
//
// Decoding is lenient so that legacy or hand-edited rows still load: the
// token is trimmed, matched against the canonical names, then matched
// case-insensitively against the canonical names and known aliases ("DONE",
// "IN PROGRESS", "IN_PROGRESS", ...). Anything unrecognized is StateToDo.
// ParseState never fails.
func ParseState(token string) State {
	x := strings.TrimSpace(token)

	for _, s := range States() {
		if s.String() == x {
			return s
		}
	}

	switch strings.ToUpper(x) {
	case "TODO", "TO DO":
		return StateToDo
	case "IN_PROGRESS", "IN PROGRESS", "INPROGRESS":
		return StateInProgress
	case "COMPLETED", "DONE":
		return StateCompleted
	}

	return StateToDo
}

// Task is a single persisted unit of work.
//
// ID is assigned by the backend on Add; zero means "not yet persisted".
// Two tasks are the same logical entity iff their IDs are equal.
type Task struct {
	ID          int64
	Title       string
	Description string
	State       State
}

// NewTask builds an unsaved task (ID 0).
func NewTask(title, description string, state State) Task {
	return Task{Title: title, Description: description, State: state}
}

// SameAs reports whether t and other refer to the same stored task.
func (t Task) SameAs(other Task) bool {
	return t.ID == other.ID
}

// Validate checks the fields a caller must supply before saving.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// String formats the task as "{id}: {title} [{state}]".
func (t Task) String() string {
	return fmt.Sprintf("%d: %s [%s]", t.ID, t.Title, t.State.Display())
}

// Backend defines the contract for task persistence.
//
// All storage backends implement these methods. Every method that cannot
// complete because of an I/O, connection or query failure returns an error
// wrapping ErrPersistence. Collections are never nil; an empty result is an
// empty slice.
type Backend interface {
	// GetAll returns every stored task.
	//
	// Relational backends order by id; the flat-file backend preserves
	// load and insertion order.
	GetAll() ([]Task, error)

	// GetByID returns the task with the given id.
	//
	// Returns (Task{}, false, nil) if no such task exists.
	GetByID(id int64) (Task, bool, error)

	// Add stores a new task and returns a copy carrying the assigned id.
	//
	// The id of the argument is ignored and the argument is not modified.
	Add(t Task) (Task, error)

	// Update overwrites every field of the task with the same id.
	//
	// Updating an id that does not exist is a no-op.
	Update(t Task) error

	// DeleteByID removes the task with the given id, if present.
	DeleteByID(id int64) error

	// DeleteAll removes every task.
	DeleteAll() error
}
