// Package pathutil resolves user-supplied file locations against a base
// directory and refuses any that would land outside it.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath is returned for empty or whitespace-only paths.
	ErrEmptyPath = errors.New("path is empty or whitespace-only")

	// ErrNullByte is returned for paths containing a NUL byte.
	ErrNullByte = errors.New("path contains null byte")

	// ErrEscapesBase is returned when the resolved path is outside the base
	// directory.
	ErrEscapesBase = errors.New("path escapes base directory")
)

// ResolveSafePath resolves userPath against baseDir and returns the absolute,
// symlink-resolved result.
//
// Relative paths are joined to baseDir. Absolute paths are accepted only when
// they already point inside baseDir. Path components that do not exist yet
// are kept as given, so the result may name a file that is about to be
// created.
//
// Example:
//
//	p, err := ResolveSafePath("/home/ana", "reports/weekly.csv")
//	// p == "/home/ana/reports/weekly.csv"
func ResolveSafePath(baseDir, userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", ErrEmptyPath
	}
	if strings.Contains(userPath, "\x00") {
		return "", ErrNullByte
	}

	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", err
	}

	baseResolved, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if !Within(baseResolved, resolved) {
		return "", fmt.Errorf("%w: %s", ErrEscapesBase, userPath)
	}
	return resolved, nil
}

// Within reports whether path is baseDir or lies beneath it. Both arguments
// are compared lexically.
func Within(baseDir, path string) bool {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and re-appends the components that do not exist yet.
func resolveExisting(path string) (string, error) {
	current := path
	var missing []string

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve symlinks: %w", err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing parent directory found for %s", path)
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
