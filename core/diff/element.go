package diff

import (
	"maps"

	"inventory-sync/core/store"
)

// Action is the remediation a diff element calls for.
type Action string

const (
	// ActionCreate means the record exists only in the source.
	ActionCreate Action = "create"
	// ActionUpdate means the record exists on both sides with differing
	// attributes.
	ActionUpdate Action = "update"
	// ActionDelete means the record exists only in the destination.
	ActionDelete Action = "delete"
	// ActionSkip means no difference was detected at this element's own
	// level. Skip elements are kept in the tree for symmetry and because
	// their children may still carry changes.
	ActionSkip Action = "skip"
)

// Change is one attribute's before/after pair. Old is the destination
// value, New the source value; either may be nil for create/delete.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Element is one node of a diff tree: the comparison outcome for a single
// (type, unique id) identity, plus the ordered child elements beneath it.
// Elements are immutable after the diff pass except for the status fields,
// which the executor writes during apply.
type Element struct {
	typeName    string
	uid         string
	identifiers map[string]any
	action      Action

	sourceAttrs map[string]any
	destAttrs   map[string]any
	changes     map[string]Change

	children []*Element

	status        store.Status
	statusMessage string
}

// Type returns the record type this element compares.
func (e *Element) Type() string { return e.typeName }

// ID returns the unique id this element compares.
func (e *Element) ID() string { return e.uid }

// Action returns the remediation this element calls for.
func (e *Element) Action() Action { return e.action }

// Identifiers returns the identifying attribute values of the compared
// record, taken from whichever side it exists on.
func (e *Element) Identifiers() map[string]any {
	return maps.Clone(e.identifiers)
}

// SourceAttrs returns the source-side attribute set, or nil if the record
// is absent from the source.
func (e *Element) SourceAttrs() map[string]any {
	return maps.Clone(e.sourceAttrs)
}

// DestAttrs returns the destination-side attribute set, or nil if the
// record is absent from the destination.
func (e *Element) DestAttrs() map[string]any {
	return maps.Clone(e.destAttrs)
}

// Changes returns the attribute-level diff: for update, only the differing
// attributes; for create/delete, the full attribute set with the absent
// side nil. Empty for skip.
func (e *Element) Changes() map[string]Change {
	return maps.Clone(e.changes)
}

// NewValues returns the source-side values of the changed attributes, which
// is what a create or update needs to apply.
func (e *Element) NewValues() map[string]any {
	out := make(map[string]any, len(e.changes))
	for name, change := range e.changes {
		out[name] = change.New
	}
	return out
}

// Children returns the ordered child elements.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// HasChanges reports whether this element or any element beneath it has a
// non-skip action.
func (e *Element) HasChanges() bool {
	if e.action != ActionSkip {
		return true
	}
	for _, child := range e.children {
		if child.HasChanges() {
			return true
		}
	}
	return false
}

// Status returns the apply outcome recorded by the executor.
func (e *Element) Status() (store.Status, string) {
	return e.status, e.statusMessage
}

// SetStatus records the apply outcome. Called by the executor only.
func (e *Element) SetStatus(status store.Status, message string) {
	e.status = status
	e.statusMessage = message
}

// Anomaly records a comparison that could not be resolved (e.g. a child
// reference pointing at a record missing from its store). Anomalies never
// abort the diff pass; they are reported alongside the tree.
type Anomaly struct {
	// Type and ID identify the record whose comparison failed.
	Type string `json:"type"`
	ID   string `json:"unique_id"`

	// Message describes the failure.
	Message string `json:"message"`
}

// Diff is the structured output of comparing two stores: one tree of
// elements per compared type, in deterministic order. It is owned by the
// caller; the executor borrows it for one apply pass.
type Diff struct {
	// Source and Destination carry the display names of the compared
	// stores.
	Source      string
	Destination string

	elements  []*Element
	anomalies []Anomaly
}

// Elements returns the top-level elements in diff order.
func (d *Diff) Elements() []*Element {
	out := make([]*Element, len(d.elements))
	copy(out, d.elements)
	return out
}

// Anomalies returns the structural anomalies encountered during the pass.
func (d *Diff) Anomalies() []Anomaly {
	out := make([]Anomaly, len(d.anomalies))
	copy(out, d.anomalies)
	return out
}

// HasChanges reports whether any element in the tree has a non-skip action.
func (d *Diff) HasChanges() bool {
	for _, el := range d.elements {
		if el.HasChanges() {
			return true
		}
	}
	return false
}

// ChangedElements returns every element in the tree, in traversal order,
// whose own action is non-skip.
func (d *Diff) ChangedElements() []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		if el.action != ActionSkip {
			out = append(out, el)
		}
		for _, child := range el.children {
			walk(child)
		}
	}
	for _, el := range d.elements {
		walk(el)
	}
	return out
}
