package store

import (
	"errors"
	"fmt"
	"iter"
)

// Sentinel errors returned by Store operations. Callers should test them
// with errors.Is since they are always returned wrapped with context.
var (
	// ErrDuplicateID indicates an Add for a (type, unique id) pair that is
	// already stored.
	ErrDuplicateID = errors.New("duplicate unique id")

	// ErrNotFound indicates a lookup or removal of a record that is not
	// stored under the requested type.
	ErrNotFound = errors.New("record not found")

	// ErrWrongType indicates a lookup where the unique id exists in the
	// store, but under a different type than the one requested.
	ErrWrongType = errors.New("record exists under a different type")
)

// Store is an in-memory index of Records for one side (source or
// destination) of a reconciliation. Records are grouped by type, addressable
// by unique id in O(1), and enumerable in insertion order.
type Store struct {
	// Name identifies this store in logs and diff output (e.g. "netbox",
	// "network").
	Name string

	records   map[string]map[string]*Record
	order     map[string][]string
	typeOrder []string
}

// New creates an empty Store with the given display name.
func New(name string) *Store {
	return &Store{
		Name:    name,
		records: make(map[string]map[string]*Record),
		order:   make(map[string][]string),
	}
}

// Add stores a record. It fails with ErrDuplicateID if a record of the same
// type and unique id is already present.
func (s *Store) Add(rec *Record) error {
	typed, ok := s.records[rec.Type()]
	if !ok {
		typed = make(map[string]*Record)
		s.records[rec.Type()] = typed
		s.typeOrder = append(s.typeOrder, rec.Type())
	}

	if _, exists := typed[rec.ID()]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateID, rec.Type(), rec.ID())
	}

	typed[rec.ID()] = rec
	s.order[rec.Type()] = append(s.order[rec.Type()], rec.ID())
	return nil
}

// Get returns the record stored under (typeName, uid). A miss is
// ErrNotFound, unless the same uid exists under another type, which is
// reported as the distinct ErrWrongType.
func (s *Store) Get(typeName, uid string) (*Record, error) {
	if rec, ok := s.records[typeName][uid]; ok {
		return rec, nil
	}

	// Distinguish "not stored at all" from "stored under another type",
	// which is almost always a caller bug worth a clearer error.
	for other, typed := range s.records {
		if other == typeName {
			continue
		}
		if _, ok := typed[uid]; ok {
			return nil, fmt.Errorf("%w: %s exists as %s, not %s", ErrWrongType, uid, other, typeName)
		}
	}

	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, typeName, uid)
}

// GetByIDs returns the records for all given uids of one type, in the given
// order. The call is atomic: if any uid is absent it fails with ErrNotFound
// naming the first missing uid, and no partial result is returned.
func (s *Store) GetByIDs(typeName string, uids []string) ([]*Record, error) {
	typed := s.records[typeName]
	result := make([]*Record, 0, len(uids))

	for _, uid := range uids {
		rec, ok := typed[uid]
		if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, typeName, uid)
		}
		result = append(result, rec)
	}

	return result, nil
}

// Remove deletes the record stored under (typeName, uid). It fails with
// ErrNotFound if the record is absent.
func (s *Store) Remove(typeName, uid string) error {
	typed := s.records[typeName]
	if _, ok := typed[uid]; !ok {
		return fmt.Errorf("%w: %s %s", ErrNotFound, typeName, uid)
	}

	delete(typed, uid)
	ids := s.order[typeName]
	for i, id := range ids {
		if id == uid {
			s.order[typeName] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// All returns a lazy, restartable sequence over the records of one type in
// insertion order. Ranging over the sequence multiple times restarts it.
func (s *Store) All(typeName string) iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, uid := range s.order[typeName] {
			rec, ok := s.records[typeName][uid]
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// IDs returns the unique ids of one type in insertion order.
func (s *Store) IDs(typeName string) []string {
	ids := s.order[typeName]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Types returns the type names present in the store, in first-insertion
// order.
func (s *Store) Types() []string {
	out := make([]string, len(s.typeOrder))
	copy(out, s.typeOrder)
	return out
}

// Len returns the number of records stored under the given type.
func (s *Store) Len(typeName string) int {
	return len(s.records[typeName])
}
