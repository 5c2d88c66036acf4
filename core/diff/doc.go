// Package diff implements the comparison engine at the heart of
// inventory-sync.
//
// A Differ compares a source store against a destination store, per type
// and per unique id, recursing into declared child relationships, and
// produces a Diff: a tree with one Element per compared identity carrying
// the action to take (create, update, delete, or skip), the attribute-level
// before/after values, and the ordered child elements.
//
// # Determinism
//
// Output ordering is fixed: destination order for shared and
// destination-only ids, source order for the appended source-only ids, and
// the same policy for types. Serialization sorts attribute names. Diffing
// the same two stores twice therefore yields byte-identical output, which
// the test suite relies on for golden comparisons.
//
// # Skip elements
//
// Elements with no difference at their own level are kept with action skip:
// a parent can be unchanged while a child underneath it was added, changed,
// or removed. Diff.HasChanges reports whether anything below the root is
// non-skip.
//
// # Anomalies
//
// A comparison that cannot be resolved, such as a child reference to a
// record missing from its store, is reported as a structural anomaly on the
// Diff rather than silently skipped, and never aborts the pass.
package diff
