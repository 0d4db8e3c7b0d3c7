package reconcile

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyByID(r Record) string {
	if v, ok := r["id"].(string); ok {
		return v
	}
	return ""
}

func rec(id string, fields map[string]any) Record {
	r := Record{"id": id}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func dbMapOf(records ...Record) map[string]Record {
	out := make(map[string]Record)
	for _, r := range records {
		out[r["id"].(string)] = r
	}
	return out
}

func TestCompare_MissingExtraCommon(t *testing.T) {
	api := []Record{rec("A", nil), rec("B", nil), rec("C", nil)}
	db := dbMapOf(rec("B", nil), rec("C", nil), rec("D", nil))

	res := Compare(Input{Name: "manifests", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 3})

	assert.Equal(t, StatusFAIL, res.Status)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, 1, res.Extra)
	assert.Equal(t, []string{"A"}, res.SampleMissing)
	assert.Equal(t, []string{"D"}, res.SampleExtra)
	assert.Equal(t, 3, res.APIKeys)
	assert.Equal(t, 3, res.DBKeys)
	assert.Equal(t, 0, res.RowDiff)
}

func TestCompare_NumericPaddingIsNotADiff(t *testing.T) {
	api := []Record{rec("B", map[string]any{"amount": "100.50"})}
	db := dbMapOf(rec("B", map[string]any{"amount": json.Number("100.5")}))

	res := Compare(Input{Name: "quotes", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 1})

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 0, res.FieldDiff)
	assert.Empty(t, res.SampleFields)
}

func TestCompare_FieldDiffAndAbsentPath(t *testing.T) {
	api := []Record{rec("B", map[string]any{
		"amount": "10",
		"status": "open",
		"nested": map[string]any{"only_api": true},
	})}
	db := dbMapOf(rec("B", map[string]any{
		"amount": "11",
		"status": "open",
	}))

	res := Compare(Input{Name: "freights", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 1})

	assert.Equal(t, StatusFAIL, res.Status)
	assert.Equal(t, 1, res.RowDiff)
	// amount differs and nested.only_api is absent on the DB side.
	assert.Equal(t, 2, res.FieldDiff)

	require.Len(t, res.SampleFields, 2)
	assert.Equal(t, "amount", res.SampleFields[0].Path)
	assert.Equal(t, "10", res.SampleFields[0].API)
	assert.Equal(t, "11", res.SampleFields[0].DB)
	assert.Equal(t, "nested.only_api", res.SampleFields[1].Path)
	assert.Equal(t, "<absent>", res.SampleFields[1].DB)
}

func TestCompare_IgnoredPaths(t *testing.T) {
	api := []Record{rec("B", map[string]any{"nfse_number": "123", "amount": "5"})}
	db := dbMapOf(rec("B", map[string]any{"nfse_number": "999", "amount": "5"}))

	res := Compare(Input{
		Name:    "client_invoices",
		APIRows: api,
		APIKey:  keyByID,
		DBMap:   db,
		DBRows:  1,
		Ignore:  map[string]struct{}{"nfse_number": {}},
	})

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 0, res.FieldDiff)
}

func TestCompare_SampleCaps(t *testing.T) {
	var api []Record
	db := make(map[string]Record)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("K%02d", i)
		api = append(api, rec(id, map[string]any{"a": "1", "b": "1", "c": "1", "d": "1", "e": "1", "f": "1", "g": "1"}))
		db[id] = rec(id, map[string]any{"a": "2", "b": "2", "c": "2", "d": "2", "e": "2", "f": "2", "g": "2"})
		// Missing/extra keys beyond the cap.
		api = append(api, rec(fmt.Sprintf("M%02d", i), nil))
		db[fmt.Sprintf("X%02d", i)] = rec(fmt.Sprintf("X%02d", i), nil)
	}

	res := Compare(Input{Name: "manifests", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 50})

	assert.Equal(t, StatusFAIL, res.Status)
	assert.Equal(t, 25, res.Missing)
	assert.Equal(t, 25, res.Extra)
	assert.Len(t, res.SampleMissing, 10)
	assert.Len(t, res.SampleExtra, 10)
	// Field samples cap at 10 total, at most 5 per row.
	assert.Len(t, res.SampleFields, 10)
	assert.Equal(t, "K00", res.SampleFields[0].Key)
	assert.Equal(t, "K00", res.SampleFields[4].Key)
	assert.Equal(t, "K01", res.SampleFields[5].Key)
}

func TestCompare_Idempotent(t *testing.T) {
	api := []Record{
		rec("A", map[string]any{"v": "1.0"}),
		rec("B", map[string]any{"v": json.Number("2")}),
		rec("C", map[string]any{"v": map[string]any{"x": "y"}}),
	}
	db := dbMapOf(
		rec("B", map[string]any{"v": "2.00"}),
		rec("C", map[string]any{"v": map[string]any{"x": "z"}}),
		rec("D", nil),
	)

	in := Input{Name: "pickups", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 3, Notes: "requestDate"}
	first, err := json.Marshal(Compare(in))
	require.NoError(t, err)
	second, err := json.Marshal(Compare(in))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompare_CountsDroppedAndDuplicateKeys(t *testing.T) {
	api := []Record{
		rec("A", nil),
		rec("A", map[string]any{"later": true}),
		rec("", nil),
		{"id": nil},
	}
	db := dbMapOf(rec("A", map[string]any{"later": true}))

	res := Compare(Input{Name: "pickups", APIRows: api, APIKey: keyByID, DBMap: db, DBRows: 1})

	// Keying anomalies are diagnostics, not divergences.
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 1, res.APIKeys)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 2, res.Dropped)
}

func TestBuildKeyMap(t *testing.T) {
	rows := []Record{
		rec("A", nil),
		rec("A", map[string]any{"later": true}),
		rec("", nil),
		{"id": nil},
	}
	byID := func(r Record) string {
		if r["id"] == nil {
			return "NULL"
		}
		return r["id"].(string)
	}

	m, dups, dropped := BuildKeyMap(rows, byID)

	assert.Len(t, m, 1)
	assert.Equal(t, 1, dups)
	assert.Equal(t, 2, dropped)
	// Last write wins on collision.
	assert.Equal(t, true, m["A"]["later"])
}
