package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"freight-reconciler/core/apiclient"
	"freight-reconciler/core/reconcile"
)

// Service orchestrates one reconciliation run: probe capabilities, fetch
// both sides of every entity type, compare and assemble the run report.
type Service struct {
	log *zap.Logger
	db  *gorm.DB
	api *apiclient.Client

	// now is indirected for deterministic report timestamps in tests.
	now func() time.Time
}

// NewService wires the orchestrator's dependencies.
func NewService(log *zap.Logger, db *gorm.DB, api *apiclient.Client) *Service {
	return &Service{log: log, db: db, api: api, now: time.Now}
}

// Run compares every entity type over the window. Entity types are
// processed sequentially in a fixed order; any fetch or load fault aborts
// the run, because reconciling partial data would under-report
// discrepancies.
func (s *Service) Run(ctx context.Context, win Window) (*Report, error) {
	caps := s.probeCapabilities(ctx)
	entities := Entities()

	results := make([]reconcile.Result, 0, len(entities))
	for _, e := range entities {
		res, err := s.compareEntity(ctx, e, win, caps)
		if err != nil {
			return nil, err
		}
		s.log.Info("entity compared",
			zap.String("entity", res.Name),
			zap.String("status", res.Status),
			zap.Int("api_keys", res.APIKeys),
			zap.Int("db_keys", res.DBKeys),
			zap.Int("missing", res.Missing),
			zap.Int("extra", res.Extra),
			zap.Int("row_diff", res.RowDiff),
		)
		results = append(results, res)
	}

	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: s.now().Format(time.RFC3339),
		Window:      WindowStamp{Start: win.StartISO(), End: win.EndISO()},
		PickupMode:  pickupMode(caps),
		Entities:    results,
	}, nil
}

func (s *Service) compareEntity(ctx context.Context, e Entity, win Window, caps Capabilities) (reconcile.Result, error) {
	apiRows, notes, err := s.fetchAPI(ctx, e, win, caps)
	if err != nil {
		return reconcile.Result{}, err
	}

	dbMap, stats, err := LoadDBSide(s.db, e, win, caps)
	if err != nil {
		return reconcile.Result{}, err
	}
	if stats.BadJSON > 0 {
		s.log.Warn("skipped undecodable snapshots",
			zap.String("entity", e.Name),
			zap.Int("rows", stats.BadJSON),
		)
	}
	if stats.Dropped > 0 || stats.Duplicates > 0 {
		s.log.Warn("snapshot keying anomalies",
			zap.String("entity", e.Name),
			zap.Int("dropped", stats.Dropped),
			zap.Int("duplicates", stats.Duplicates),
		)
	}

	return reconcile.Compare(reconcile.Input{
		Name:    e.Name,
		APIRows: apiRows,
		APIKey:  e.APIKey,
		DBMap:   dbMap,
		DBRows:  stats.Rows,
		Ignore:  e.Ignore,
		Notes:   notes,
	}), nil
}

// fetchAPI retrieves the API side of one entity through its configured
// strategy. The returned notes describe non-default query modes.
func (s *Service) fetchAPI(ctx context.Context, e Entity, win Window, caps Capabilities) ([]reconcile.Record, string, error) {
	switch e.Strategy {
	case StrategyPage:
		return s.fetchPaged(ctx, e, win)
	case StrategyCursor:
		return s.fetchCursor(ctx, e, win, caps)
	default:
		return nil, "", fmt.Errorf("entity %s: unknown fetch strategy %q", e.Name, e.Strategy)
	}
}

func (s *Service) fetchPaged(ctx context.Context, e Entity, win Window) ([]reconcile.Record, string, error) {
	rows, err := s.api.ReportRows(ctx, e.Name, e.Page, win.StartISO(), win.EndISO())
	if err == nil {
		return rows, "", nil
	}

	// Heavy report templates time out on large pages; retry the ladder of
	// smaller pages with longer timeouts before giving up.
	for _, spec := range e.PageFallbacks {
		s.log.Warn("page fetch failed, retrying with smaller pages",
			zap.String("entity", e.Name),
			zap.Int("per_page", spec.PerPage),
			zap.Error(err),
		)
		rows, err = s.api.ReportRows(ctx, e.Name, spec, win.StartISO(), win.EndISO())
		if err == nil {
			return rows, fmt.Sprintf("per_page=%d", spec.PerPage), nil
		}
	}
	return nil, "", err
}

func (s *Service) fetchCursor(ctx context.Context, e Entity, win Window, caps Capabilities) ([]reconcile.Record, string, error) {
	if e.Cursor.RangeParam != "" {
		params := map[string]any{e.Cursor.RangeParam: win.RangeExpr()}
		rows, err := s.api.GraphQLQuery(ctx, e.Cursor.Entity, e.Cursor.Query, params)
		return rows, "", err
	}

	dayParams := e.Cursor.DayParams
	if e.Cursor.OptionalDayParam != "" && s.hasCapability(e.Cursor.OptionalDayParam, caps) {
		dayParams = append(append([]string{}, dayParams...), e.Cursor.OptionalDayParam)
	}

	var rows []reconcile.Record
	for _, day := range win.Days() {
		for _, param := range dayParams {
			params := map[string]any{param: day.Format(time.DateOnly)}
			page, err := s.api.GraphQLQuery(ctx, e.Cursor.Entity, e.Cursor.Query, params)
			if err != nil {
				return nil, "", err
			}
			rows = append(rows, page...)
		}
	}
	if e.Cursor.DedupeByID {
		rows = dedupeByKey(rows, e.APIKey)
	}
	return rows, "filters=" + strings.Join(dayParams, "+"), nil
}

func (s *Service) hasCapability(param string, caps Capabilities) bool {
	return param == "serviceDate" && caps.PickupServiceDate
}

// probeCapabilities discovers optional filter parameters through schema
// introspection. A failed probe degrades to the baseline query set rather
// than failing the run.
func (s *Service) probeCapabilities(ctx context.Context) Capabilities {
	var caps Capabilities

	root, err := s.api.GraphQLRaw(ctx, pickupFilterProbeQuery)
	if err != nil {
		s.log.Warn("capability probe failed, using baseline pickup filters", zap.Error(err))
		return caps
	}
	for _, name := range inputFieldNames(root) {
		if name == "serviceDate" {
			caps.PickupServiceDate = true
		}
	}

	s.log.Info("capabilities probed", zap.Bool("pickup_service_date", caps.PickupServiceDate))
	return caps
}

// inputFieldNames extracts data.__type.inputFields[].name from an
// introspection response.
func inputFieldNames(root map[string]any) []string {
	data, _ := root["data"].(map[string]any)
	typ, _ := data["__type"].(map[string]any)
	fields, _ := typ["inputFields"].([]any)

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		field, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := field["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}

// dedupeByKey collapses rows to one per key, keeping the latest value at
// the first occurrence's position so output order stays deterministic.
// Rows without a usable key pass through untouched.
func dedupeByKey(rows []reconcile.Record, keyFn func(reconcile.Record) string) []reconcile.Record {
	seen := make(map[string]int)
	out := make([]reconcile.Record, 0, len(rows))
	for _, r := range rows {
		key := keyFn(r)
		if key == "" || key == "NULL" {
			out = append(out, r)
			continue
		}
		if i, ok := seen[key]; ok {
			out[i] = r
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

func pickupMode(caps Capabilities) string {
	if caps.PickupServiceDate {
		return "requestDate+serviceDate"
	}
	return "requestDate"
}
