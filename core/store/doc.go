// Package store provides the in-memory record index used on both sides of a
// reconciliation run.
//
// A Store holds Records grouped by type name. Within a type, records are
// addressable by unique id in constant time and enumerable in insertion
// order, which is what makes diff output deterministic.
//
// # Errors
//
// Store operations surface programming/usage errors directly:
//
//   - ErrDuplicateID: Add of an already-stored (type, unique id) pair.
//   - ErrNotFound: lookup/removal of an absent record, including the first
//     missing id of a GetByIDs multi-lookup (which is atomic).
//   - ErrWrongType: the unique id exists, but under another type.
//
// All are returned wrapped; test with errors.Is.
package store
