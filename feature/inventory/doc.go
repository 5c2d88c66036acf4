// Package inventory is the network inventory reconciliation feature. It
// loads the source of truth (a snapshot file or object) and the deployed
// state (the database), diffs them with the core engine, and applies the
// diff through the database adapter, exposing the flow over HTTP and the
// CLI.
package inventory
