// Package reconcile provides the ordered executor that applies a computed
// diff tree against a destination system.
//
// The executor walks the tree produced by core/diff in a defined traversal
// order and invokes the backing-system Adapter for every non-skip element:
//
//   - create/update: parent before children (pre-order), since children may
//     reference their parent
//   - delete: children before parent (post-order), so no dangling
//     references are left behind
//
// # Partial failure
//
// A failed backing-system operation marks the element (and the destination
// record, if any) with status failure and the captured message, then the
// walk continues with siblings and unrelated subtrees. The one exception is
// a failed create, which short-circuits that element's children: they
// cannot meaningfully exist under a parent that was never created. A failed
// delete has already processed its children in post-order, so nothing more
// is skipped. The engine never retries; the run summary lists exactly which
// identities failed and why, enabling the caller to retry just that subset.
//
// # Completion
//
// Apply returns the run summary synchronously. The optional OnComplete
// callback additionally fires with the changed elements and the summary,
// but only when the tree contained at least one non-skip element.
package reconcile
