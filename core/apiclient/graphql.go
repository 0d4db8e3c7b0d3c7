package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"freight-reconciler/core/canon"
)

// maxCursorPages is the last-resort circuit breaker for cursor pagination.
// There is no other cancellation mechanism inside a pagination loop, so a
// misbehaving server must not be able to spin it forever.
const maxCursorPages = 3000

// GraphQLQuery runs one cursor-paginated GraphQL query and returns the
// flat ordered sequence of nodes under the named entity. Pagination stops
// when the server reports no next page, an empty cursor, or a cursor that
// repeats the previous one.
func (c *Client) GraphQLQuery(ctx context.Context, entity, query string, params map[string]any) ([]map[string]any, error) {
	var out []map[string]any
	after := ""

	for page := 1; ; page++ {
		if page > maxCursorPages {
			return nil, &FetchError{Entity: entity, Context: fmt.Sprintf("page %d", page), Body: "cursor page cap exceeded"}
		}

		vars := map[string]any{"params": params}
		if after != "" {
			vars["after"] = after
		}
		root, status, body, err := c.postGraphQL(ctx, map[string]any{"query": query, "variables": vars})
		if err != nil {
			return nil, fmt.Errorf("graphql %s: %w", entity, err)
		}
		cursorCtx := "cursor=" + canon.Short(after, 40)
		if status != http.StatusOK {
			return nil, &FetchError{Entity: entity, Context: cursorCtx, Status: status, Body: canon.Short(string(body), 180)}
		}
		if root == nil {
			// A 200 without a decodable envelope must abort the run:
			// treating it as an empty page would compare against nothing.
			return nil, &FetchError{Entity: entity, Context: cursorCtx, Status: status, Body: "invalid JSON: " + canon.Short(string(body), 180)}
		}
		if errs, found := root["errors"]; found {
			return nil, &FetchError{Entity: entity, Context: cursorCtx, Status: status, Body: "errors=" + canon.Short(canonErrors(errs), 180)}
		}

		data, _ := root["data"].(map[string]any)
		conn, ok := data[entity].(map[string]any)
		if !ok {
			break
		}
		edges, _ := conn["edges"].([]any)
		for _, e := range edges {
			edge, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if node, ok := edge["node"].(map[string]any); ok {
				out = append(out, node)
			}
		}

		pageInfo, _ := conn["pageInfo"].(map[string]any)
		hasNext, _ := pageInfo["hasNextPage"].(bool)
		next, _ := pageInfo["endCursor"].(string)
		if !hasNext || next == "" || next == after {
			break
		}
		after = next
		c.pageDelay()
	}
	return out, nil
}

// GraphQLRaw posts a single non-paginated GraphQL document (for example a
// schema introspection probe) and returns the decoded response root.
func (c *Client) GraphQLRaw(ctx context.Context, query string) (map[string]any, error) {
	root, status, body, err := c.postGraphQL(ctx, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &FetchError{Entity: "graphql", Context: "raw query", Status: status, Body: canon.Short(string(body), 180)}
	}
	if root == nil {
		return nil, &FetchError{Entity: "graphql", Context: "raw query", Status: status, Body: "invalid JSON: " + canon.Short(string(body), 180)}
	}
	return root, nil
}

// postGraphQL issues one retried POST to the GraphQL endpoint and decodes
// the envelope generically.
func (c *Client) postGraphQL(ctx context.Context, payload map[string]any) (map[string]any, int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, nil, err
	}

	resp, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.GraphQLToken)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, 0, nil, err
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, resp.StatusCode, nil, err
	}
	doc, err := decodeJSON(body)
	if err != nil {
		// A non-200 body is often not JSON at all; callers report the
		// status first and treat a nil root on 200 as a malformed envelope.
		return nil, resp.StatusCode, body, nil
	}
	// A decodable body that is not an object is equally malformed.
	root, _ := doc.(map[string]any)
	return root, resp.StatusCode, body, nil
}

func canonErrors(errs any) string {
	encoded, err := json.Marshal(errs)
	if err != nil {
		return fmt.Sprintf("%v", errs)
	}
	return string(encoded)
}
