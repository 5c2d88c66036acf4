// Package schema holds the caller-declared type definitions that drive a
// reconciliation run.
//
// The original data being reconciled is dynamically typed; here every type
// is declared up front: which attributes form the identity (and therefore
// the unique id), which are comparable data, and which child types a record
// may reference. Records are validated and coerced against their spec once,
// at construction time.
//
// # Registry
//
// A Registry bundles the specs for one run and is passed explicitly into
// the diff engine and executor. Its lifecycle is tied to the run; there are
// no global type registries.
//
// # Collection attributes
//
// Each attribute declares whether element order matters. Unordered
// collections (the default) are compared order-insensitively by the diff
// engine; declare OrderSensitive for lists whose order is meaningful.
package schema
