package store

import "maps"

// Status is the last known reconciliation outcome of a record or diff
// element.
type Status string

const (
	// StatusNone means no reconciliation has been attempted yet.
	StatusNone Status = ""
	// StatusSuccess means the last backing-system operation succeeded.
	StatusSuccess Status = "success"
	// StatusFailure means the last backing-system operation failed.
	StatusFailure Status = "failure"
)

// Record is a typed, uniquely-identified unit of comparable data. Identity
// (type + unique id, derived from the identifying attributes) is immutable
// after construction; non-identifying attributes are mutable; children are
// referenced by unique id per child type, never embedded.
type Record struct {
	typeName    string
	uid         string
	identifiers map[string]any
	attrs       map[string]any
	children    map[string][]string

	status        Status
	statusMessage string
}

// NewRecord assembles a record from already-validated parts. Most callers
// should construct records through schema.Registry.NewRecord instead, which
// validates against the declared type spec first.
func NewRecord(typeName, uid string, identifiers, attrs map[string]any) *Record {
	return &Record{
		typeName:    typeName,
		uid:         uid,
		identifiers: identifiers,
		attrs:       attrs,
		children:    make(map[string][]string),
	}
}

// Type returns the declared type name of the record.
func (r *Record) Type() string { return r.typeName }

// ID returns the unique id of the record within its type.
func (r *Record) ID() string { return r.uid }

// Identifiers returns a copy of the identifying attribute values.
func (r *Record) Identifiers() map[string]any {
	return maps.Clone(r.identifiers)
}

// Attrs returns a copy of the non-identifying attribute values.
func (r *Record) Attrs() map[string]any {
	return maps.Clone(r.attrs)
}

// Attr returns one non-identifying attribute value.
func (r *Record) Attr(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// SetAttrs overwrites the given non-identifying attributes. Identity is not
// touched; unknown names are the caller's responsibility (the executor only
// passes names that came out of the diff).
func (r *Record) SetAttrs(changed map[string]any) {
	for name, value := range changed {
		r.attrs[name] = value
	}
}

// ChildIDs returns the ordered unique ids of the record's children of one
// type.
func (r *Record) ChildIDs(childType string) []string {
	ids := r.children[childType]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// SetChildIDs replaces the child reference list for one child type.
func (r *Record) SetChildIDs(childType string, uids []string) {
	r.children[childType] = append([]string(nil), uids...)
}

// AddChild appends a child reference, ignoring duplicates.
func (r *Record) AddChild(childType, uid string) {
	for _, existing := range r.children[childType] {
		if existing == uid {
			return
		}
	}
	r.children[childType] = append(r.children[childType], uid)
}

// RemoveChild drops a child reference if present.
func (r *Record) RemoveChild(childType, uid string) {
	ids := r.children[childType]
	for i, existing := range ids {
		if existing == uid {
			r.children[childType] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

// Status returns the last reconciliation outcome and diagnostic message.
func (r *Record) Status() (Status, string) {
	return r.status, r.statusMessage
}

// SetStatus records the reconciliation outcome. Written by the executor,
// readable by callers.
func (r *Record) SetStatus(status Status, message string) {
	r.status = status
	r.statusMessage = message
}
