// Package database manages the MySQL connection to the extractor store,
// the side of the reconciliation that holds denormalized JSON snapshots.
//
// The store is treated as read-only: the reconciler only ever selects
// (key_column, metadata) pairs and never mutates rows. The connection is
// acquired once per run and released on every exit path.
package database
