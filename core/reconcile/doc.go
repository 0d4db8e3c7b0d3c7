// Package reconcile provides a generic engine for reconciling two views of
// the same logical entities: records fetched from the remote API and
// denormalized JSON snapshots read from the database.
//
// The engine is deliberately source-agnostic. Both sides arrive as
// schema-less records; a per-entity key function turns each side into a
// key→record map, keys are classified into missing (API only), extra (DB
// only) and common, and common pairs are diffed field by field through the
// canon flattener and normalizer.
//
// # Determinism
//
// Running Compare twice on the same inputs yields byte-identical results:
// key sets and paths are iterated in sorted order and sample selection is
// capped but order-stable. This makes a reconciliation run reproducible
// and its report diffable.
//
// # Failure semantics
//
// A comparison is OK only when no key is missing, no key is extra and no
// common record diverges on any compared path. Key collisions and dropped
// invalid keys are surfaced as diagnostics, not failures: the comparison
// is a best-effort snapshot of two live systems, not a transaction.
package reconcile
