package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphqlPage(entity string, nodes []map[string]any, hasNext bool, cursor string) map[string]any {
	edges := make([]any, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, map[string]any{"node": n})
	}
	return map[string]any{
		"data": map[string]any{
			entity: map[string]any{
				"edges":    edges,
				"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
			},
		},
	}
}

func TestGraphQLQuery_FollowsCursorUntilExhausted(t *testing.T) {
	var afters []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graphql", r.URL.Path)
		require.Equal(t, "Bearer gql-token", r.Header.Get("Authorization"))

		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		after, _ := req.Variables["after"].(string)
		afters = append(afters, after)

		var page map[string]any
		switch after {
		case "":
			page = graphqlPage("pick", []map[string]any{{"id": "1"}, {"id": "2"}}, true, "c1")
		case "c1":
			page = graphqlPage("pick", []map[string]any{{"id": "3"}}, false, "c2")
		default:
			t.Fatalf("unexpected cursor %q", after)
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1, PageDelayMillis: 1})

	nodes, err := c.GraphQLQuery(context.Background(), "pick", "query {}", map[string]any{"requestDate": "2024-03-01"})
	require.NoError(t, err)

	require.Len(t, nodes, 3)
	assert.Equal(t, "1", nodes[0]["id"])
	assert.Equal(t, "3", nodes[2]["id"])
	assert.Equal(t, []string{"", "c1"}, afters)
}

func TestGraphQLQuery_RepeatedCursorTerminates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Misbehaving server: always claims a next page with the same
		// cursor it was given on the second call.
		cursor := "stuck"
		_ = json.NewEncoder(w).Encode(graphqlPage("freight", []map[string]any{{"id": fmt.Sprintf("%d", calls)}}, true, cursor))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	nodes, err := c.GraphQLQuery(context.Background(), "freight", "query {}", nil)
	require.NoError(t, err)

	// First page advances to "stuck"; second page repeats it and stops.
	assert.Equal(t, 2, calls)
	assert.Len(t, nodes, 2)
}

func TestGraphQLQuery_ErrorsFieldIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []any{map[string]any{"message": "field not found"}},
		})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	_, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "pick", fe.Entity)
	assert.Contains(t, fe.Body, "field not found")
}

func TestGraphQLQuery_NonOKStatusIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	_, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.Status)
}

func TestGraphQLQuery_MalformedEnvelopeIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Intercepting proxies answer 200 with an HTML page during
		// maintenance; that must never pass for an empty result set.
		_, _ = w.Write([]byte("<html>upstream maintenance</html>"))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	_, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusOK, fe.Status)
	assert.Contains(t, fe.Body, "invalid JSON")
}

func TestGraphQLQuery_NonObjectEnvelopeIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	_, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Body, "invalid JSON")
}

func TestGraphQLRaw_MalformedEnvelopeIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	_, err := c.GraphQLRaw(context.Background(), "query {}")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusOK, fe.Status)
	assert.Contains(t, fe.Body, "invalid JSON")
}

func TestGraphQLQuery_MissingEntityTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	nodes, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGraphQLQuery_NumbersSurviveAsJSONNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"pick":{"edges":[{"node":{"amount":100.50}}],"pageInfo":{"hasNextPage":false,"endCursor":""}}}}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	nodes, err := c.GraphQLQuery(context.Background(), "pick", "query {}", nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	// The decoder must keep the exact textual form, not a float64.
	assert.Equal(t, json.Number("100.50"), nodes[0]["amount"])
}

func TestGraphQLRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"__type": map[string]any{"inputFields": []any{map[string]any{"name": "serviceDate"}}}},
		})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, Config{MaxAttempts: 2, BaseWaitMillis: 1})

	root, err := c.GraphQLRaw(context.Background(), "query {}")
	require.NoError(t, err)
	data, _ := root["data"].(map[string]any)
	assert.NotNil(t, data["__type"])
}
