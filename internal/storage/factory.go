package storage

import (
	"go.uber.org/zap"

	"github.com/JamesPrial/tasktracker/internal/config"
)

// Constructor is one candidate backend for FirstAvailable.
type Constructor struct {
	// Name identifies the backend in logs and errors (e.g., "sqlite").
	Name string

	// New builds the backend or reports why it cannot.
	New func() (Backend, error)
}

// FirstAvailable tries each constructor in order and returns the first
// backend that builds, together with its name.
//
// Each failure is logged at warn level and otherwise hidden from the caller.
// If every constructor fails the error is an *InitializationError listing all
// causes.
func FirstAvailable(logger *zap.Logger, constructors ...Constructor) (Backend, string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	initErr := &InitializationError{}
	for _, c := range constructors {
		backend, err := c.New()
		if err == nil {
			logger.Debug("storage backend selected", zap.String("backend", c.Name))
			return backend, c.Name, nil
		}
		logger.Warn("storage backend unavailable",
			zap.String("backend", c.Name),
			zap.Error(err),
		)
		initErr.Causes = append(initErr.Causes, BackendFailure{Name: c.Name, Err: err})
	}

	return nil, "", initErr
}

// Constructors returns the selection chain described by cfg.
//
// In auto mode the relational backend (PostgreSQL when a database URL is
// configured, SQLite otherwise) is tried first and the flat file second. An
// explicit backend mode yields just that backend.
func Constructors(cfg *config.Config) []Constructor {
	sqlite := Constructor{Name: config.BackendSQLite, New: func() (Backend, error) {
		return NewSQLiteBackend(cfg.SQLitePath)
	}}
	postgres := Constructor{Name: config.BackendPostgres, New: func() (Backend, error) {
		return NewPostgresBackend(cfg.DatabaseURL)
	}}
	file := Constructor{Name: config.BackendFile, New: func() (Backend, error) {
		return NewFileBackend(cfg.FilePath)
	}}

	switch cfg.Backend {
	case config.BackendSQLite:
		return []Constructor{sqlite}
	case config.BackendPostgres:
		return []Constructor{postgres}
	case config.BackendFile:
		return []Constructor{file}
	}

	if cfg.DatabaseURL != "" {
		return []Constructor{postgres, file}
	}
	return []Constructor{sqlite, file}
}

// Open selects a backend according to cfg and wraps it in a CachingBackend.
//
// Call it once at startup and pass the result to every component that needs
// persistence; callers never receive an unwrapped backend.
func Open(cfg *config.Config, logger *zap.Logger, opts ...CacheOption) (*CachingBackend, error) {
	backend, name, err := FirstAvailable(logger, Constructors(cfg)...)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("storage ready", zap.String("backend", name))
	}
	return NewCachingBackend(backend, opts...), nil
}
