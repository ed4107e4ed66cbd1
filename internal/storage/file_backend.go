package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// fileFieldCount is the number of comma-separated fields in a stored line.
const fileFieldCount = 4

// FileBackend implements Backend using a single comma-separated text file.
//
// Each line is "id,title,description,state". The whole file is loaded into
// memory on construction and rewritten after every mutation. Text fields are
// escaped lossily: newlines become a literal `\n` and commas become
// semicolons. The semicolon substitution cannot be reversed.
//
// The in-memory table and the id counter are owned by the backend. The
// counter is seeded from the largest id seen at load time, so new ids exceed
// every loaded id; other processes writing the same file are not detected.
type FileBackend struct {
	// Path is the absolute path to the data file.
	Path string

	mu    sync.Mutex
	tasks map[int64]Task
	order []int64
	seq   atomic.Int64
}

// NewFileBackend loads the data file at path and returns a ready backend.
//
// A missing file is an empty store. Lines with fewer than four fields or a
// non-numeric id are skipped. Returns an error if the file exists but cannot
// be read, or if its directory cannot be created or written to.
func NewFileBackend(path string) (*FileBackend, error) {
	b := &FileBackend{
		Path:  path,
		tasks: make(map[int64]Task),
	}

	if err := b.load(); err != nil {
		return nil, fmt.Errorf("failed to load task file: %w", err)
	}
	if err := b.probeWritable(); err != nil {
		return nil, fmt.Errorf("task file location is not writable: %w", err)
	}

	return b, nil
}

// load parses the data file into the in-memory table.
func (b *FileBackend) load() error {
	f, err := os.Open(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var maxID int64
	for scanner.Scan() {
		t, ok := decodeLine(scanner.Text())
		if !ok {
			continue
		}
		if _, dup := b.tasks[t.ID]; !dup {
			b.order = append(b.order, t.ID)
		}
		b.tasks[t.ID] = t
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	b.seq.Store(maxID)
	return nil
}

// probeWritable makes sure the directory exists and accepts new files.
func (b *FileBackend) probeWritable() error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// GetAll returns all tasks in load and insertion order.
func (b *FileBackend) GetAll() ([]Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]Task, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, b.tasks[id])
	}
	return result, nil
}

// GetByID returns the task with the given id, or false if there is none.
func (b *FileBackend) GetByID(id int64) (Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tasks[id]
	return t, ok, nil
}

// Add stores t under the next counter value and rewrites the file.
func (b *FileBackend) Add(t Task) (Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t.ID = b.seq.Add(1)
	err := b.mutate("add", func() {
		b.tasks[t.ID] = t
		b.order = append(b.order, t.ID)
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// Update replaces the stored task with the same id and rewrites the file.
func (b *FileBackend) Update(t Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tasks[t.ID]; !ok {
		return nil
	}
	return b.mutate("update", func() {
		b.tasks[t.ID] = t
	})
}

// DeleteByID removes the task with the given id and rewrites the file.
func (b *FileBackend) DeleteByID(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.mutate("deleteById", func() {
		if _, ok := b.tasks[id]; !ok {
			return
		}
		delete(b.tasks, id)
		order := make([]int64, 0, len(b.order))
		for _, existing := range b.order {
			if existing != id {
				order = append(order, existing)
			}
		}
		b.order = order
	})
}

// DeleteAll empties the store and rewrites the file.
func (b *FileBackend) DeleteAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.mutate("deleteAll", func() {
		b.tasks = make(map[int64]Task)
		b.order = nil
	})
}

// mutate applies change and rewrites the file. If the write fails the
// in-memory table is restored. Callers hold b.mu.
func (b *FileBackend) mutate(op string, change func()) error {
	prevTasks := make(map[int64]Task, len(b.tasks))
	for id, t := range b.tasks {
		prevTasks[id] = t
	}
	prevOrder := append([]int64(nil), b.order...)

	change()

	if err := b.save(); err != nil {
		b.tasks = prevTasks
		b.order = prevOrder
		return persistErr(op, err)
	}
	return nil
}

// save rewrites the whole data file from the in-memory table.
//
// Writes to a temporary file in the same directory and renames it over the
// data file so an interrupted write never leaves a truncated file behind.
func (b *FileBackend) save() error {
	var buf bytes.Buffer
	for _, id := range b.order {
		buf.WriteString(encodeLine(b.tasks[id]))
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(buf.Bytes())
	closeErr := tmpFile.Close()

	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write task file: %w", writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close task file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, b.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace task file: %w", err)
	}

	return nil
}

// encodeLine formats t as one line of the data file, without the newline.
func encodeLine(t Task) string {
	return strconv.FormatInt(t.ID, 10) + "," +
		escapeField(t.Title) + "," +
		escapeField(t.Description) + "," +
		t.State.Display()
}

// decodeLine parses one line of the data file.
//
// Fields beyond the fourth are ignored.
func decodeLine(line string) (Task, bool) {
	line = strings.TrimSuffix(line, "\r")
	parts := strings.Split(line, ",")
	if len(parts) < fileFieldCount {
		return Task{}, false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || id <= 0 {
		return Task{}, false
	}

	return Task{
		ID:          id,
		Title:       unescapeField(parts[1]),
		Description: unescapeField(parts[2]),
		State:       ParseState(parts[3]),
	}, true
}

// escapeField replaces newlines with a literal `\n` and commas with ';'.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, ",", ";")
}

// unescapeField reverses the newline escape. Semicolons stay semicolons.
func unescapeField(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
