package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer persists run artifacts under a fixed directory, file-named by a
// run timestamp so successive runs never collide. Each artifact is
// written exactly once per run.
type Writer struct {
	dir string

	// now is indirected for deterministic filenames in tests.
	now func() time.Time
}

// NewWriter creates a writer for the configured directory.
func NewWriter(cfg Config) *Writer {
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	return &Writer{dir: dir, now: time.Now}
}

// WithClock replaces the writer's clock and returns the writer, letting
// callers pin the run timestamp.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Stamp returns the filename timestamp for the current run.
func (w *Writer) Stamp() string {
	return w.now().Format("2006-01-02_15-04-05")
}

// WriteJSON writes the fully detailed structured artifact and returns its
// path.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(w.dir, name+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// WriteMarkdown writes the condensed human-readable summary and returns
// its path.
func (w *Writer) WriteMarkdown(name string, lines []string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(w.dir, name+".md")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
