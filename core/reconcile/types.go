package reconcile

// Record is a schema-less entity snapshot as decoded from one source.
// Fields vary per entity type and per source; no fixed shape is assumed.
type Record = map[string]any

// Terminal status values for a comparison.
const (
	StatusOK   = "OK"
	StatusFAIL = "FAIL"
)

// Sampling caps keep the report readable when thousands of records diverge.
const (
	maxKeySamples         = 10
	maxFieldSamples       = 10
	maxFieldSamplesPerRow = 5
	sampleValueLen        = 180
)

// FieldSample pinpoints one divergent path on one record for triage.
type FieldSample struct {
	// Key is the matching key of the record the divergence was found on.
	Key string `json:"key"`

	// Path is the flattened path of the divergent field.
	Path string `json:"path"`

	// API is the truncated API-side value, or "<absent>".
	API string `json:"api"`

	// DB is the truncated DB-side value, or "<absent>".
	DB string `json:"db"`
}

// Input bundles both sides of one entity comparison.
type Input struct {
	// Name is the entity type being compared.
	Name string

	// APIRows are the raw records fetched from the API side.
	APIRows []Record

	// APIKey derives the matching key for an API-side record.
	APIKey func(Record) string

	// DBMap is the already-keyed DB side.
	DBMap map[string]Record

	// DBRows is the number of DB rows considered before keying, kept as a
	// diagnostic alongside the keyed count.
	DBRows int

	// Ignore lists flattened paths excluded from field diffing because
	// they are source-specific and not comparable.
	Ignore map[string]struct{}

	// Notes carries free-form context recorded in the result (for
	// example, which query mode produced the API rows).
	Notes string
}

// Result is the comparison outcome for one entity type.
type Result struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	APIKeys   int    `json:"api_keys"`
	DBKeys    int    `json:"db_keys"`
	Missing   int    `json:"missing"`
	Extra     int    `json:"extra"`
	RowDiff   int    `json:"row_diff"`
	FieldDiff int    `json:"field_diff"`
	APIRaw    int    `json:"api_raw"`
	DBRows    int    `json:"db_rows"`

	// Duplicates counts API-side key collisions (last write wins). A
	// diagnostic, not a failure by itself.
	Duplicates int `json:"duplicates"`

	// Dropped counts API-side records whose derived key was empty or the
	// NULL placeholder and therefore could not be matched.
	Dropped int    `json:"dropped"`
	Notes   string `json:"notes"`

	SampleMissing []string      `json:"sample_missing"`
	SampleExtra   []string      `json:"sample_extra"`
	SampleFields  []FieldSample `json:"sample_fields"`
}
