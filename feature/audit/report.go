package audit

import (
	"fmt"

	"freight-reconciler/core/reconcile"
	"freight-reconciler/core/report"
)

// Report is the aggregate outcome of one reconciliation run.
type Report struct {
	RunID       string             `json:"run_id"`
	GeneratedAt string             `json:"generated_at"`
	Window      WindowStamp        `json:"window"`
	PickupMode  string             `json:"pickup_mode"`
	Entities    []reconcile.Result `json:"entities"`
}

// WindowStamp is the window's serialized form in the report.
type WindowStamp struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Failed reports whether any entity comparison diverged.
func (r *Report) Failed() bool {
	for _, e := range r.Entities {
		if e.Status != reconcile.StatusOK {
			return true
		}
	}
	return false
}

// FailedCount counts diverging entity comparisons.
func (r *Report) FailedCount() int {
	n := 0
	for _, e := range r.Entities {
		if e.Status != reconcile.StatusOK {
			n++
		}
	}
	return n
}

// Write persists both artifact forms (machine-readable JSON and a human
// summary in Markdown) under one timestamped name and returns their paths.
func (r *Report) Write(w *report.Writer) (string, string, error) {
	name := "api_db_compare_" + w.Stamp()

	jsonPath, err := w.WriteJSON(name, r)
	if err != nil {
		return "", "", err
	}
	mdPath, err := w.WriteMarkdown(name, r.markdownLines())
	if err != nil {
		return "", "", err
	}
	return jsonPath, mdPath, nil
}

func (r *Report) markdownLines() []string {
	lines := []string{
		fmt.Sprintf("# API x DB comparison (%s .. %s)", r.Window.Start, r.Window.End),
		"",
		fmt.Sprintf("- Run: `%s` at %s", r.RunID, r.GeneratedAt),
		fmt.Sprintf("- Pickup filters: `%s`", r.PickupMode),
		"",
	}

	for _, e := range r.Entities {
		lines = append(lines,
			fmt.Sprintf("## %s — %s", e.Name, e.Status),
			"",
			fmt.Sprintf("- API keys: %d (raw %d, duplicates %d, dropped %d)", e.APIKeys, e.APIRaw, e.Duplicates, e.Dropped),
			fmt.Sprintf("- DB keys: %d (rows %d)", e.DBKeys, e.DBRows),
			fmt.Sprintf("- Missing on DB: %d | extra on DB: %d | rows with field diffs: %d (%d fields)",
				e.Missing, e.Extra, e.RowDiff, e.FieldDiff),
		)
		if e.Notes != "" {
			lines = append(lines, fmt.Sprintf("- Notes: %s", e.Notes))
		}
		if len(e.SampleMissing) > 0 {
			lines = append(lines, "- Sample missing keys:")
			for _, k := range e.SampleMissing {
				lines = append(lines, fmt.Sprintf("  - `%s`", k))
			}
		}
		if len(e.SampleExtra) > 0 {
			lines = append(lines, "- Sample extra keys:")
			for _, k := range e.SampleExtra {
				lines = append(lines, fmt.Sprintf("  - `%s`", k))
			}
		}
		if len(e.SampleFields) > 0 {
			lines = append(lines, "- Sample field diffs:")
			for _, f := range e.SampleFields {
				lines = append(lines, fmt.Sprintf("  - `%s` %s: api=%s db=%s", f.Key, f.Path, f.API, f.DB))
			}
		}
		lines = append(lines, "")
	}
	return lines
}
