// Package source provides the inventory backends: snapshot files (JSON or
// YAML), snapshot objects in storage, and the destination database, which
// doubles as the reconciliation adapter.
package source
