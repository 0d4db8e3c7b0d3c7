// Package canon provides canonical representations for schema-less record
// values so that semantically equal values compare equal across sources.
//
// The two systems of record disagree on numeric precision ("100.50" vs
// 100.5), timezone suffix style ("Z" vs "+00:00"), and trailing-zero
// padding. Without canonicalization nearly every record would spuriously
// differ.
//
// # Components
//
// 1. Normalize: renders a single scalar or nested value into a
// comparison-stable string with a typed marker prefix, so that a boolean
// true never collides with the number 1 and a missing value never collides
// with an empty string.
//
// 2. Flatten: projects an arbitrarily nested record into a flat mapping
// from dotted/indexed path to leaf value, the substrate for field-level
// diffing.
//
// # Usage
//
//	paths := canon.Flatten(record)
//	for p, v := range paths {
//	    fmt.Println(p, canon.Normalize(v))
//	}
package canon
