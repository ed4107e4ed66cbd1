package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JamesPrial/tasktracker/internal/config"
	"github.com/JamesPrial/tasktracker/internal/storage"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func okConstructor(name string, b storage.Backend) storage.Constructor {
	return storage.Constructor{Name: name, New: func() (storage.Backend, error) { return b, nil }}
}

func failingConstructor(name string, err error) storage.Constructor {
	return storage.Constructor{Name: name, New: func() (storage.Backend, error) { return nil, err }}
}

// testConfig returns an auto-mode config rooted in a fresh temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:    dir,
		Backend:    config.BackendAuto,
		SQLitePath: filepath.Join(dir, ".tasks", "tasks.db"),
		FilePath:   filepath.Join(dir, "tasks_data.csv"),
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

func constructorNames(cs []storage.Constructor) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names
}

// ---------------------------------------------------------------------------
// FirstAvailable
// ---------------------------------------------------------------------------

func Test_FirstAvailable_FirstSuccessWins(t *testing.T) {
	t.Parallel()

	primary, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "a.csv"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	secondaryCalled := false
	secondary := storage.Constructor{Name: "secondary", New: func() (storage.Backend, error) {
		secondaryCalled = true
		return nil, errors.New("should not be reached")
	}}

	b, name, err := storage.FirstAvailable(nil, okConstructor("primary", primary), secondary)
	if err != nil {
		t.Fatalf("FirstAvailable: %v", err)
	}
	if name != "primary" || b != storage.Backend(primary) {
		t.Errorf("FirstAvailable = (%T, %q), want primary", b, name)
	}
	if secondaryCalled {
		t.Error("later constructor ran after an earlier one succeeded")
	}
}

func Test_FirstAvailable_FallsBackAndLogsFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	fallback, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "b.csv"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	cause := errors.New("database locked")

	b, name, err := storage.FirstAvailable(logger,
		failingConstructor("relational", cause),
		okConstructor("file", fallback),
	)
	if err != nil {
		t.Fatalf("FirstAvailable: %v", err)
	}
	if name != "file" || b != storage.Backend(fallback) {
		t.Errorf("FirstAvailable = (%T, %q), want file fallback", b, name)
	}

	warnings := logs.FilterMessage("storage backend unavailable").All()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if got := warnings[0].ContextMap()["backend"]; got != "relational" {
		t.Errorf("warning backend field = %v, want relational", got)
	}
}

func Test_FirstAvailable_AllFail(t *testing.T) {
	t.Parallel()

	errA := errors.New("no database")
	errB := errors.New("read-only filesystem")

	b, name, err := storage.FirstAvailable(nil,
		failingConstructor("sqlite", errA),
		failingConstructor("file", errB),
	)
	if err == nil {
		t.Fatal("FirstAvailable: expected error when every constructor fails")
	}
	if b != nil || name != "" {
		t.Errorf("FirstAvailable returned (%v, %q) alongside error", b, name)
	}

	if !errors.Is(err, storage.ErrInitialization) {
		t.Errorf("error %v does not wrap ErrInitialization", err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("error %v does not wrap both causes", err)
	}

	var initErr *storage.InitializationError
	if !errors.As(err, &initErr) {
		t.Fatalf("error %T is not *InitializationError", err)
	}
	if len(initErr.Causes) != 2 || initErr.Causes[0].Name != "sqlite" || initErr.Causes[1].Name != "file" {
		t.Errorf("Causes = %+v, want sqlite then file", initErr.Causes)
	}
	if !strings.Contains(err.Error(), "read-only filesystem") {
		t.Errorf("error message %q does not mention the last cause", err.Error())
	}
}

func Test_FirstAvailable_NoConstructors(t *testing.T) {
	t.Parallel()

	_, _, err := storage.FirstAvailable(nil)
	if !errors.Is(err, storage.ErrInitialization) {
		t.Errorf("FirstAvailable() = %v, want ErrInitialization", err)
	}
}

// ---------------------------------------------------------------------------
// Constructors: selection chain per mode
// ---------------------------------------------------------------------------

func Test_Constructors_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		backend     string
		databaseURL string
		want        []string
	}{
		{name: "auto without url", backend: config.BackendAuto, want: []string{"sqlite", "file"}},
		{name: "auto with url", backend: config.BackendAuto, databaseURL: "postgres://x", want: []string{"postgres", "file"}},
		{name: "explicit sqlite", backend: config.BackendSQLite, want: []string{"sqlite"}},
		{name: "explicit postgres", backend: config.BackendPostgres, databaseURL: "postgres://x", want: []string{"postgres"}},
		{name: "explicit file", backend: config.BackendFile, want: []string{"file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{Backend: tt.backend, DatabaseURL: tt.databaseURL}
			got := constructorNames(storage.Constructors(cfg))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Constructors(%s) = %v, want %v", tt.backend, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func Test_Open_PrefersSQLite(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	cached, err := storage.Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := cached.Inner().(*storage.SQLiteBackend); !ok {
		t.Errorf("Open selected %T, want *storage.SQLiteBackend", cached.Inner())
	}
}

func Test_Open_FallsBackToFileWhenRelationalUnavailable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	blocker := filepath.Join(cfg.DataDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg.SQLitePath = filepath.Join(blocker, "tasks.db")

	core, logs := observer.New(zapcore.WarnLevel)
	cached, err := storage.Open(cfg, zap.New(core))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := cached.Inner().(*storage.FileBackend); !ok {
		t.Fatalf("Open selected %T, want *storage.FileBackend", cached.Inner())
	}
	if logs.FilterMessage("storage backend unavailable").Len() != 1 {
		t.Error("relational failure was not logged")
	}

	added, err := cached.Add(storage.NewTask("Buy milk", "", storage.StateToDo))
	if err != nil {
		t.Fatalf("Add through fallback: %v", err)
	}
	if added.ID != 1 {
		t.Errorf("Add id = %d, want 1", added.ID)
	}
}

func Test_Open_AllBackendsFail(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	blocker := filepath.Join(cfg.DataDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg.SQLitePath = filepath.Join(blocker, "tasks.db")
	cfg.FilePath = filepath.Join(blocker, "tasks_data.csv")

	cached, err := storage.Open(cfg, nil)
	if !errors.Is(err, storage.ErrInitialization) {
		t.Fatalf("Open error = %v, want ErrInitialization", err)
	}
	if cached != nil {
		t.Error("Open returned a backend alongside an error")
	}
}

func Test_Open_ExplicitFileMode(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Backend = config.BackendFile

	cached, err := storage.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fb, ok := cached.Inner().(*storage.FileBackend)
	if !ok {
		t.Fatalf("Open selected %T, want *storage.FileBackend", cached.Inner())
	}
	if fb.Path != cfg.FilePath {
		t.Errorf("FileBackend.Path = %q, want %q", fb.Path, cfg.FilePath)
	}
}
