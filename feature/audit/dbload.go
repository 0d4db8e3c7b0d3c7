package audit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"freight-reconciler/core/reconcile"
	"freight-reconciler/core/utils"
)

// DBStats summarizes one entity's snapshot load.
type DBStats struct {
	// Rows counts decoded snapshots inside the time window.
	Rows int
	// BadJSON counts rows whose metadata column could not be decoded.
	BadJSON int
	// Dropped counts kept rows whose derived key was empty.
	Dropped int
	// Duplicates counts kept rows whose key repeated an earlier row.
	Duplicates int
}

// LoadDBSide reads every (key column, metadata) pair for one entity,
// decodes the JSON snapshots, filters them by the entity's time-window
// predicate and keys the survivors. Undecodable snapshots are skipped and
// counted rather than failing the run.
func LoadDBSide(db *gorm.DB, e Entity, win Window, caps Capabilities) (map[string]reconcile.Record, DBStats, error) {
	query := fmt.Sprintf("SELECT %s, metadata FROM %s WHERE metadata IS NOT NULL", e.KeyColumn, e.Table)

	rows, err := db.Raw(query).Rows()
	if err != nil {
		return nil, DBStats{}, fmt.Errorf("load %s: %w", e.Name, err)
	}
	defer rows.Close()

	out := make(map[string]reconcile.Record)
	var stats DBStats
	for rows.Next() {
		var keyVal, meta any
		if err := rows.Scan(&keyVal, &meta); err != nil {
			return nil, stats, fmt.Errorf("scan %s: %w", e.Name, err)
		}

		rec, err := decodeSnapshot(utils.ToString(meta))
		if err != nil {
			stats.BadJSON++
			continue
		}
		if !e.Keep(rec, win, caps) {
			continue
		}
		stats.Rows++

		key := e.DBKey(utils.ToString(keyVal), rec)
		if key == "" || key == "NULL" {
			stats.Dropped++
			continue
		}
		if _, exists := out[key]; exists {
			stats.Duplicates++
		}
		out[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("iterate %s: %w", e.Name, err)
	}
	return out, stats, nil
}

// decodeSnapshot decodes one metadata document, keeping numbers as
// json.Number so precision matches the API side.
func decodeSnapshot(raw string) (reconcile.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var rec reconcile.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("snapshot is null")
	}
	return rec, nil
}
