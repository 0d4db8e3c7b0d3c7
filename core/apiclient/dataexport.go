package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"freight-reconciler/core/canon"
)

// ReportSpec parameterizes one page-protocol report query.
type ReportSpec struct {
	// Template is the numeric report template identifier.
	Template int
	// Table is the search table the date filter applies to.
	Table string
	// Field is the date-range field inside the search filter.
	Field string
	// PerPage is the requested page size.
	PerPage int
	// OrderBy is the server-side ordering expression.
	OrderBy string
	// Nested adds an empty created_at clause alongside the date filter,
	// required by report templates with nested search semantics.
	Nested bool
	// TimeoutSeconds overrides the client default for this report.
	TimeoutSeconds int
}

// ReportRows fetches every page of one report for the inclusive date range
// [start, end] (both "YYYY-MM-DD"). Pages are requested sequentially from
// page 1 until a page yields no interpretable rows.
func (c *Client) ReportRows(ctx context.Context, entity string, spec ReportSpec, start, end string) ([]map[string]any, error) {
	var out []map[string]any
	rangeExpr := start + " - " + end

	for page := 1; ; page++ {
		rows, err := c.reportPage(ctx, entity, spec, page, rangeExpr)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		out = append(out, rows...)
		c.pageDelay()
	}
	return out, nil
}

// reportPage fetches and decodes one page. A response that is neither a
// bare list nor an object with a "data" list terminates pagination by
// returning no rows.
func (c *Client) reportPage(ctx context.Context, entity string, spec ReportSpec, page int, rangeExpr string) ([]map[string]any, error) {
	filter := map[string]any{spec.Field: rangeExpr}
	if spec.Nested {
		filter["created_at"] = ""
	}
	payload, err := json.Marshal(map[string]any{
		"search":   map[string]any{spec.Table: filter},
		"page":     strconv.Itoa(page),
		"per":      strconv.Itoa(spec.PerPage),
		"order_by": spec.OrderBy,
	})
	if err != nil {
		return nil, err
	}

	reqCtx := ctx
	if spec.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(spec.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	url := fmt.Sprintf("%s/api/analytics/reports/%d/data", c.baseURL, spec.Template)
	resp, err := c.do(reqCtx, func(ctx context.Context) (*http.Request, error) {
		// The report endpoint reads its filter from the body of a GET.
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.DataExportToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("report %s template=%d page=%d: %w", entity, spec.Template, page, err)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("report %s template=%d page=%d: %w", entity, spec.Template, page, err)
	}
	pageCtx := fmt.Sprintf("template=%d page=%d", spec.Template, page)
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Entity: entity, Context: pageCtx, Status: resp.StatusCode, Body: canon.Short(string(body), 180)}
	}

	doc, err := decodeJSON(body)
	if err != nil {
		return nil, &FetchError{Entity: entity, Context: pageCtx, Status: resp.StatusCode, Body: "invalid JSON: " + canon.Short(string(body), 180)}
	}

	// Rows arrive either bare or wrapped in a "data" object.
	raw := doc
	if obj, ok := doc.(map[string]any); ok {
		if wrapped, found := obj["data"]; found {
			raw = wrapped
		}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
