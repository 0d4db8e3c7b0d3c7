package audit

import (
	"freight-reconciler/core/apiclient"
	"freight-reconciler/core/canon"
	"freight-reconciler/core/reconcile"
)

// Strategy selects how an entity's API side is fetched.
type Strategy string

const (
	// StrategyPage fetches through the page-numbered report protocol.
	StrategyPage Strategy = "page"
	// StrategyCursor fetches through cursor-paginated GraphQL.
	StrategyCursor Strategy = "cursor"
)

// CursorSpec parameterizes a cursor-strategy fetch.
type CursorSpec struct {
	// Entity is the GraphQL connection field holding the edges.
	Entity string
	// Query is the GraphQL document to execute.
	Query string
	// RangeParam, when set, is queried once with the whole window as a
	// "start - end" expression.
	RangeParam string
	// DayParams are filter parameters queried once per day in the window.
	DayParams []string
	// OptionalDayParam is an extra per-day parameter used only when the
	// capability probe reports the filter input accepts it.
	OptionalDayParam string
	// DedupeByID collapses rows fetched through multiple parameters into
	// one row per id.
	DedupeByID bool
}

// Capabilities captures optional API features discovered by the schema
// probe before the run.
type Capabilities struct {
	// PickupServiceDate is true when the pickup filter input accepts a
	// serviceDate parameter.
	PickupServiceDate bool
}

// Entity describes one reconciled entity type: how to fetch each side,
// how to key records, and which paths to ignore when diffing.
type Entity struct {
	Name string

	Strategy Strategy
	Page     apiclient.ReportSpec
	// PageFallbacks are retried in order when the primary page fetch
	// fails, trading smaller pages for longer timeouts.
	PageFallbacks []apiclient.ReportSpec
	Cursor        CursorSpec

	// Table and KeyColumn locate the snapshot rows in the extractor store.
	Table     string
	KeyColumn string

	// APIKey derives the matching key for an API record.
	APIKey func(reconcile.Record) string
	// DBKey derives the matching key from the scanned key column value and
	// the decoded snapshot.
	DBKey func(key string, rec reconcile.Record) string
	// Keep is the time-window predicate applied to decoded snapshots.
	Keep func(rec reconcile.Record, win Window, caps Capabilities) bool

	// Ignore lists flattened paths excluded from field comparison.
	Ignore map[string]struct{}
}

// columnKey keys DB rows by the scanned key column, ignoring the snapshot.
func columnKey(key string, _ reconcile.Record) string {
	return canon.Safe(key)
}

// Entities returns the fixed, ordered table of reconciled entity types.
// The slice is rebuilt per call so callers can never mutate shared state.
func Entities() []Entity {
	return []Entity{
		{
			Name:     "manifests",
			Strategy: StrategyPage,
			Page: apiclient.ReportSpec{
				Template: 6399, Table: "manifests", Field: "service_date",
				PerPage: 10000, OrderBy: "sequence_code asc", TimeoutSeconds: 120,
			},
			Table:     "manifests",
			KeyColumn: "sequence_code",
			APIKey:    manifestKey,
			DBKey: func(_ string, rec reconcile.Record) string {
				return manifestKey(rec)
			},
			// Manifests are snapshotted on creation but reported by service
			// date, so the store is read with one day of slack.
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateBetween(rec["created_at"], win.Start().AddDate(0, 0, -1), win.End())
			},
		},
		{
			Name:     "quotes",
			Strategy: StrategyPage,
			Page: apiclient.ReportSpec{
				Template: 6906, Table: "quotes", Field: "requested_at",
				PerPage: 1000, OrderBy: "sequence_code asc", TimeoutSeconds: 60,
			},
			Table:     "quotes",
			KeyColumn: "sequence_code",
			APIKey:    fieldKey("sequence_code"),
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateInWindow(rec["requested_at"], win)
			},
		},
		{
			Name:     "cargo_locations",
			Strategy: StrategyPage,
			Page: apiclient.ReportSpec{
				Template: 8656, Table: "freights", Field: "service_at",
				PerPage: 10000, OrderBy: "sequence_number asc", TimeoutSeconds: 90,
			},
			Table:     "cargo_locations",
			KeyColumn: "sequence_number",
			APIKey:    cargoLocationKey,
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateInWindow(rec["service_at"], win)
			},
		},
		{
			Name:     "payables",
			Strategy: StrategyPage,
			Page: apiclient.ReportSpec{
				Template: 8636, Table: "accounting_debits", Field: "issue_date",
				PerPage: 100, OrderBy: "issue_date desc", Nested: true, TimeoutSeconds: 60,
			},
			PageFallbacks: []apiclient.ReportSpec{
				{Template: 8636, Table: "accounting_debits", Field: "issue_date",
					PerPage: 50, OrderBy: "issue_date desc", Nested: true, TimeoutSeconds: 120},
				{Template: 8636, Table: "accounting_debits", Field: "issue_date",
					PerPage: 25, OrderBy: "issue_date desc", Nested: true, TimeoutSeconds: 180},
			},
			Table:     "payables",
			KeyColumn: "sequence_code",
			APIKey:    payableKey,
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateInWindow(rec["issue_date"], win)
			},
		},
		{
			Name:     "client_invoices",
			Strategy: StrategyPage,
			Page: apiclient.ReportSpec{
				Template: 4924, Table: "freights", Field: "service_at",
				PerPage: 100, OrderBy: "unique_id asc", TimeoutSeconds: 60,
			},
			Table:     "client_invoices",
			// The extractor derives unique_id with the same fallback chain
			// clientInvoiceKey implements, so the column is the key.
			KeyColumn: "unique_id",
			APIKey:    clientInvoiceKey,
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateInWindow(rec["fit_ant_issue_date"], win) ||
					dateInWindow(rec["fit_fhe_cte_issued_at"], win)
			},
			// The fiscal note number is assigned asynchronously after
			// emission and diverges constantly without being an error.
			Ignore: map[string]struct{}{"nfse_number": {}},
		},
		{
			Name:     "pickups",
			Strategy: StrategyCursor,
			Cursor: CursorSpec{
				Entity:           "pick",
				Query:            pickupQuery,
				DayParams:        []string{"requestDate"},
				OptionalDayParam: "serviceDate",
				DedupeByID:       true,
			},
			Table:     "pickups",
			KeyColumn: "id",
			APIKey:    fieldKey("id"),
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, caps Capabilities) bool {
				if dateInWindow(rec["requestDate"], win) {
					return true
				}
				return caps.PickupServiceDate && dateInWindow(rec["serviceDate"], win)
			},
		},
		{
			Name:     "freights",
			Strategy: StrategyCursor,
			Cursor: CursorSpec{
				Entity:     "freight",
				Query:      freightQuery,
				RangeParam: "serviceAt",
			},
			Table:     "freights",
			KeyColumn: "id",
			APIKey:    fieldKey("id"),
			DBKey:     columnKey,
			Keep: func(rec reconcile.Record, win Window, _ Capabilities) bool {
				return dateInWindow(rec["serviceAt"], win) ||
					dateInWindow(rec["serviceDate"], win)
			},
		},
	}
}
