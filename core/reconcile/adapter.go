package reconcile

import (
	"context"

	"inventory-sync/core/store"
)

// Adapter is the backing-system collaborator: it performs the actual
// create/update/delete against the real destination system (database, API,
// file) while the executor keeps the in-memory destination store in step.
//
// Operations are treated as potentially slow, fallible synchronous calls;
// they receive the caller's context and must not retry internally. An error
// marks the element as failed in the run summary and is never propagated as
// a hard abort.
type Adapter interface {
	// Create materializes a new record of the given type in the backing
	// system. ids holds the identifying attribute values, attrs the
	// non-identifying ones.
	Create(ctx context.Context, typeName string, ids, attrs map[string]any) error

	// Update applies the changed non-identifying attributes to an existing
	// record.
	Update(ctx context.Context, rec *store.Record, changed map[string]any) error

	// Delete removes an existing record from the backing system.
	Delete(ctx context.Context, rec *store.Record) error
}
