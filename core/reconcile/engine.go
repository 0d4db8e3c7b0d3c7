package reconcile

import (
	"sort"

	"freight-reconciler/core/canon"
)

// BuildKeyMap folds rows into a key→record map. Records whose derived key
// is empty or the "NULL" placeholder cannot be matched safely and are
// dropped. Colliding keys keep the last record seen.
// Returns the map, the collision count and the dropped count.
func BuildKeyMap(rows []Record, keyFn func(Record) string) (map[string]Record, int, int) {
	out := make(map[string]Record, len(rows))
	dups := 0
	dropped := 0
	for _, r := range rows {
		k := keyFn(r)
		if k == "" || k == "NULL" {
			dropped++
			continue
		}
		if _, exists := out[k]; exists {
			dups++
		}
		out[k] = r
	}
	return out, dups, dropped
}

// Compare reconciles one entity type. It keys both sides, classifies keys
// into missing/extra/common, and field-diffs every common pair through the
// flattener and normalizer. The result is deterministic: identical inputs
// produce identical results, samples included.
func Compare(in Input) Result {
	apiMap, dups, dropped := BuildKeyMap(in.APIRows, in.APIKey)

	missing, extra, common := classify(apiMap, in.DBMap)

	rowDiff := 0
	fieldDiff := 0
	sampleFields := make([]FieldSample, 0, maxFieldSamples)
	for _, k := range common {
		d, samples := diffRows(apiMap[k], in.DBMap[k], in.Ignore)
		fieldDiff += d
		if d == 0 {
			continue
		}
		rowDiff++
		for _, s := range samples {
			if len(sampleFields) >= maxFieldSamples {
				break
			}
			s.Key = k
			sampleFields = append(sampleFields, s)
		}
	}

	status := StatusOK
	if len(missing) > 0 || len(extra) > 0 || rowDiff > 0 {
		status = StatusFAIL
	}

	return Result{
		Name:          in.Name,
		Status:        status,
		APIKeys:       len(apiMap),
		DBKeys:        len(in.DBMap),
		Missing:       len(missing),
		Extra:         len(extra),
		RowDiff:       rowDiff,
		FieldDiff:     fieldDiff,
		APIRaw:        len(in.APIRows),
		DBRows:        in.DBRows,
		Duplicates:    dups,
		Dropped:       dropped,
		Notes:         in.Notes,
		SampleMissing: head(missing, maxKeySamples),
		SampleExtra:   head(extra, maxKeySamples),
		SampleFields:  sampleFields,
	}
}

// classify splits the two key sets into API-only, DB-only and common keys,
// each sorted for deterministic output.
func classify(apiMap, dbMap map[string]Record) (missing, extra, common []string) {
	missing = make([]string, 0)
	extra = make([]string, 0)
	common = make([]string, 0)
	for k := range apiMap {
		if _, ok := dbMap[k]; ok {
			common = append(common, k)
		} else {
			missing = append(missing, k)
		}
	}
	for k := range dbMap {
		if _, ok := apiMap[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(common)
	return missing, extra, common
}

// diffRows compares two records path by path. Every path present on the
// API side (outside the ignore set) must exist on the DB side and
// normalize identically; a path missing on the DB side counts as a
// disagreement.
func diffRows(api, db Record, ignore map[string]struct{}) (int, []FieldSample) {
	fa := canon.Flatten(api)
	fb := canon.Flatten(db)

	diff := 0
	samples := make([]FieldSample, 0, maxFieldSamplesPerRow)
	for _, p := range canon.SortedPaths(fa) {
		if _, skip := ignore[p]; skip {
			continue
		}
		bv, present := fb[p]
		if present && canon.Normalize(fa[p]) == canon.Normalize(bv) {
			continue
		}
		diff++
		if len(samples) < maxFieldSamplesPerRow {
			dbVal := "<absent>"
			if present {
				dbVal = canon.Short(bv, sampleValueLen)
			}
			samples = append(samples, FieldSample{
				Path: p,
				API:  canon.Short(fa[p], sampleValueLen),
				DB:   dbVal,
			})
		}
	}
	return diff, samples
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
