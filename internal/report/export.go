package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Exporter writes a report to a file.
//
// Export does not return an error. Failures are logged and the target file
// is left untouched. Callers that must know the outcome use WriteCSV or
// WriteYAML directly.
type Exporter interface {
	Export(r Report, path string)
}

// Export formats accepted by ExporterFor.
const (
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// ExporterFor returns the exporter for format ("csv" or "yaml").
func ExporterFor(format string, logger *zap.Logger) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return &CSVExporter{Logger: logger}, nil
	case FormatYAML, "yml":
		return &YAMLExporter{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %q. Expected 'csv' or 'yaml'", format)
	}
}

// WriteFile writes r to path in format and returns any failure. The file is
// replaced atomically.
func WriteFile(path, format string, r Report) error {
	var write func(io.Writer, Report) error
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		write = WriteCSV
	case FormatYAML, "yml":
		write = WriteYAML
	default:
		return fmt.Errorf("unknown export format: %q. Expected 'csv' or 'yaml'", format)
	}
	return writeFileAtomic(path, func(w io.Writer) error { return write(w, r) })
}

// ---------------------------------------------------------------------------
// CSV
// ---------------------------------------------------------------------------

// CSVExporter writes the Title,Description,State table.
type CSVExporter struct {
	Logger *zap.Logger
}

// Export writes r to path as CSV, logging any failure.
func (e *CSVExporter) Export(r Report, path string) {
	if err := writeFileAtomic(path, func(w io.Writer) error { return WriteCSV(w, r) }); err != nil {
		logger(e.Logger).Error("report export failed",
			zap.String("format", FormatCSV),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	logger(e.Logger).Info("report exported",
		zap.String("format", FormatCSV),
		zap.String("path", path),
		zap.Int("tasks", r.Total()),
	)
}

// WriteCSV writes a header row and one row per task.
//
// Fields are not quoted: line breaks become spaces and commas become
// semicolons, so every row has exactly three columns.
func WriteCSV(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Title,Description,State\n"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range r.tasks {
		line := csvField(t.Title) + "," + csvField(t.Description) + "," + csvField(t.State.Display()) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("failed to write task %d: %w", t.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

var csvReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", ",", ";")

func csvField(s string) string {
	return csvReplacer.Replace(s)
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

// YAMLExporter writes the counts followed by the task list.
type YAMLExporter struct {
	Logger *zap.Logger
}

type yamlTask struct {
	ID          int64  `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	State       string `yaml:"state"`
}

type yamlReport struct {
	Total      int        `yaml:"total"`
	ToDo       int        `yaml:"todo"`
	InProgress int        `yaml:"in_progress"`
	Completed  int        `yaml:"completed"`
	Tasks      []yamlTask `yaml:"tasks"`
}

// Export writes r to path as YAML, logging any failure.
func (e *YAMLExporter) Export(r Report, path string) {
	if err := writeFileAtomic(path, func(w io.Writer) error { return WriteYAML(w, r) }); err != nil {
		logger(e.Logger).Error("report export failed",
			zap.String("format", FormatYAML),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	logger(e.Logger).Info("report exported",
		zap.String("format", FormatYAML),
		zap.String("path", path),
		zap.Int("tasks", r.Total()),
	)
}

// WriteYAML encodes r as a single YAML document.
func WriteYAML(w io.Writer, r Report) error {
	doc := yamlReport{
		Total:      r.Total(),
		ToDo:       r.todo,
		InProgress: r.inProgress,
		Completed:  r.completed,
		Tasks:      make([]yamlTask, 0, len(r.tasks)),
	}
	for _, t := range r.tasks {
		doc.Tasks = append(doc.Tasks, yamlTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			State:       t.State.String(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish report: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it over path once write succeeds.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := write(tmpFile); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
