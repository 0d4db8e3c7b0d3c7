// Package audit reconciles the remote API against the extractor database.
//
// A run covers one inclusive date window. For every entity type in the
// fixed table the orchestrator fetches the API side (cursor-paginated
// GraphQL or page-numbered report data), loads the matching JSON
// snapshots from MySQL, keys both sides and hands them to the comparison
// engine. The aggregate outcome is written as a JSON artifact plus a
// Markdown summary.
//
// # Entity table
//
// Each Entity bundles everything the run needs: the fetch strategy and
// its parameters, the snapshot table and key column, the key resolvers
// for both sides, the time-window predicate and the ignored field paths.
// Adding an entity type means adding one table entry.
//
// # Capabilities
//
// Optional API filter parameters are discovered through a schema
// introspection probe before the run. A failed probe degrades to the
// baseline query set instead of failing the run.
package audit
