package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // register sqlite driver
)

// sqliteSchemaDDL creates the tasks table.
//
// Deliberately issued without IF NOT EXISTS: ensureSchema recognizes the
// "already exists" failure and treats it as success.
const sqliteSchemaDDL = `
CREATE TABLE tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title VARCHAR(255),
    description TEXT,
    state VARCHAR(32)
)
`

// SQLiteBackend implements Backend using an embedded SQLite database.
//
// The database file is created on first use. Every operation opens its own
// handle and closes it before returning; no pool outlives a call.
type SQLiteBackend struct {
	// DBPath is the absolute path to the SQLite database file.
	DBPath string
}

// NewSQLiteBackend creates a new SQLiteBackend and initializes the database schema.
//
// Parent directories are created automatically. Returns an error if the
// database cannot be opened or the schema cannot be created.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	backend := &SQLiteBackend{
		DBPath: dbPath,
	}

	if err := backend.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return backend, nil
}

// connect opens a new single-connection database handle in WAL mode.
//
// The handle is limited to one connection so that a follow-up query such as
// last_insert_rowid() runs on the connection that performed the insert.
func (b *SQLiteBackend) connect() (*sql.DB, error) {
	dir := filepath.Dir(b.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", b.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return db, nil
}

// ensureSchema creates the tasks table unless it already exists.
func (b *SQLiteBackend) ensureSchema() error {
	db, err := b.connect()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(sqliteSchemaDDL); err != nil {
		if isSQLiteTableExists(err) {
			return nil
		}
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}

	return nil
}

// isSQLiteTableExists reports whether err is SQLite's "table ... already exists".
func isSQLiteTableExists(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}

// GetAll returns all tasks ordered by id.
func (b *SQLiteBackend) GetAll() ([]Task, error) {
	db, err := b.connect()
	if err != nil {
		return nil, persistErr("getAll", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT id, title, description, state FROM tasks ORDER BY id`)
	if err != nil {
		return nil, persistErr("getAll", fmt.Errorf("failed to query tasks: %w", err))
	}
	defer func() { _ = rows.Close() }()

	result := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, persistErr("getAll", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr("getAll", fmt.Errorf("error iterating rows: %w", err))
	}

	return result, nil
}

// GetByID returns the task with the given id, or false if there is none.
func (b *SQLiteBackend) GetByID(id int64) (Task, bool, error) {
	db, err := b.connect()
	if err != nil {
		return Task{}, false, persistErr("getById", err)
	}
	defer func() { _ = db.Close() }()

	row := db.QueryRow(`SELECT id, title, description, state FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, persistErr("getById", err)
	}

	return t, true, nil
}

// Add inserts t and returns a copy carrying the generated id.
//
// The id comes from the driver's generated-key result. If the driver does
// not report one, last_insert_rowid() is queried on the same connection.
func (b *SQLiteBackend) Add(t Task) (Task, error) {
	db, err := b.connect()
	if err != nil {
		return Task{}, persistErr("add", err)
	}
	defer func() { _ = db.Close() }()

	res, err := db.Exec(
		`INSERT INTO tasks (title, description, state) VALUES (?, ?, ?)`,
		t.Title, t.Description, t.State.String(),
	)
	if err != nil {
		return Task{}, persistErr("add", fmt.Errorf("failed to insert task: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil || id <= 0 {
		if err := db.QueryRow(`SELECT last_insert_rowid()`).Scan(&id); err != nil {
			id = 0
		}
	}
	if id <= 0 {
		return Task{}, persistErr("add", ErrNoGeneratedID)
	}

	t.ID = id
	return t, nil
}

// Update overwrites title, description and state of the row with t.ID.
func (b *SQLiteBackend) Update(t Task) error {
	db, err := b.connect()
	if err != nil {
		return persistErr("update", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(
		`UPDATE tasks SET title = ?, description = ?, state = ? WHERE id = ?`,
		t.Title, t.Description, t.State.String(), t.ID,
	); err != nil {
		return persistErr("update", fmt.Errorf("failed to update task: %w", err))
	}

	return nil
}

// DeleteByID removes the row with the given id.
func (b *SQLiteBackend) DeleteByID(id int64) error {
	db, err := b.connect()
	if err != nil {
		return persistErr("deleteById", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return persistErr("deleteById", fmt.Errorf("failed to delete task: %w", err))
	}

	return nil
}

// DeleteAll removes every row.
func (b *SQLiteBackend) DeleteAll() error {
	db, err := b.connect()
	if err != nil {
		return persistErr("deleteAll", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`DELETE FROM tasks`); err != nil {
		return persistErr("deleteAll", fmt.Errorf("failed to delete tasks: %w", err))
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one (id, title, description, state) row.
//
// NULL text columns from hand-edited databases read as empty strings and the
// state token is decoded leniently.
func scanTask(r rowScanner) (Task, error) {
	var (
		t                         Task
		title, description, state sql.NullString
	)
	if err := r.Scan(&t.ID, &title, &description, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("failed to scan row: %w", err)
	}
	t.Title = title.String
	t.Description = description.String
	t.State = ParseState(state.String)
	return t, nil
}
