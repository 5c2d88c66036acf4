package diff

import (
	"fmt"
	"reflect"
	"sort"

	"inventory-sync/core/schema"
	"inventory-sync/core/store"

	"go.uber.org/zap"
)

// Differ computes the structured difference between two stores. It is
// stateless apart from its schema registry and logger; one Differ can serve
// many diff passes.
type Differ struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// NewDiffer creates a diff engine for the given schema registry.
func NewDiffer(registry *schema.Registry, logger *zap.Logger) *Differ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Differ{registry: registry, logger: logger}
}

// diffState carries the per-pass accumulators through the recursion.
type diffState struct {
	result *Diff
	// covered tracks (type, unique id) pairs already represented by an
	// element, so records reached through a parent's child references are
	// not diffed a second time at the top level.
	covered map[string]map[string]struct{}
	source  *store.Store
	dest    *store.Store
}

func (s *diffState) markCovered(typeName, uid string) {
	typed, ok := s.covered[typeName]
	if !ok {
		typed = make(map[string]struct{})
		s.covered[typeName] = typed
	}
	typed[uid] = struct{}{}
}

func (s *diffState) isCovered(typeName, uid string) bool {
	_, ok := s.covered[typeName][uid]
	return ok
}

// Diff compares source against dest and returns the resulting diff tree.
//
// When no type names are given, every type present in either store is
// compared. Top-level types (those not referenced as children of another
// compared type) are diffed first and their trees recurse into declared
// children; any remaining record of a compared type not reachable through a
// parent is then diffed at the top level, so the tree covers every unique
// id of every compared type exactly once.
//
// Ordering is deterministic throughout: destination order for shared and
// destination-only ids, then source-only ids in source order, and the same
// policy one level up for types. Repeated diffs of unchanged stores
// serialize byte-identically.
func (d *Differ) Diff(source, dest *store.Store, types ...string) (*Diff, error) {
	if len(types) == 0 {
		types = unionOrdered(dest.Types(), source.Types())
	}
	for _, typeName := range types {
		if _, ok := d.registry.Type(typeName); !ok {
			return nil, fmt.Errorf("cannot diff undeclared type %q", typeName)
		}
	}

	d.logger.Debug("beginning diff calculation",
		zap.String("source", source.Name),
		zap.String("destination", dest.Name),
		zap.Strings("types", types),
	)

	state := &diffState{
		result:  &Diff{Source: source.Name, Destination: dest.Name},
		covered: make(map[string]map[string]struct{}),
		source:  source,
		dest:    dest,
	}

	topLevel := d.topLevel(types)
	for _, typeName := range topLevel {
		d.diffTopLevel(state, typeName, nil)
	}

	// Second pass for records of child types that no parent references
	// (orphans): the tree must cover every id of every compared type.
	for _, typeName := range types {
		d.diffTopLevel(state, typeName, func(uid string) bool {
			return state.isCovered(typeName, uid)
		})
	}

	d.logger.Debug("diff calculation complete",
		zap.Int("elements", len(state.result.elements)),
		zap.Int("anomalies", len(state.result.anomalies)),
		zap.Bool("has_changes", state.result.HasChanges()),
	)

	return state.result, nil
}

// topLevel filters the requested types down to the ones not referenced as a
// child by any other requested type, preserving order.
func (d *Differ) topLevel(types []string) []string {
	child := make(map[string]struct{})
	for _, typeName := range types {
		spec, _ := d.registry.Type(typeName)
		for _, c := range spec.Children {
			child[c] = struct{}{}
		}
	}
	var out []string
	for _, typeName := range types {
		if _, isChild := child[typeName]; !isChild {
			out = append(out, typeName)
		}
	}
	if len(out) == 0 {
		// Fully cyclic or purely child-typed request; diff as given.
		return types
	}
	return out
}

// diffTopLevel emits one element per unique id of typeName present in
// either store, skipping ids for which skip returns true.
func (d *Differ) diffTopLevel(state *diffState, typeName string, skip func(string) bool) {
	spec, _ := d.registry.Type(typeName)
	srcByID := indexByID(state.source, typeName)
	dstByID := indexByID(state.dest, typeName)

	for _, uid := range unionOrdered(state.dest.IDs(typeName), state.source.IDs(typeName)) {
		if skip != nil && skip(uid) {
			continue
		}
		element := d.diffPair(state, spec, uid, srcByID[uid], dstByID[uid])
		state.result.elements = append(state.result.elements, element)
	}
}

// diffPair compares one (type, unique id) identity present on either side
// and recurses into declared children. At most one of src/dst may be nil.
func (d *Differ) diffPair(state *diffState, spec *schema.TypeSpec, uid string, src, dst *store.Record) *Element {
	state.markCovered(spec.Name, uid)
	element := &Element{typeName: spec.Name, uid: uid, changes: make(map[string]Change)}
	if src != nil {
		element.identifiers = src.Identifiers()
	} else if dst != nil {
		element.identifiers = dst.Identifiers()
	}

	switch {
	case src != nil && dst == nil:
		element.action = ActionCreate
		element.sourceAttrs = src.Attrs()
		for name, value := range element.sourceAttrs {
			element.changes[name] = Change{New: value}
		}
	case src == nil && dst != nil:
		element.action = ActionDelete
		element.destAttrs = dst.Attrs()
		for name, value := range element.destAttrs {
			element.changes[name] = Change{Old: value}
		}
	default:
		element.sourceAttrs = src.Attrs()
		element.destAttrs = dst.Attrs()
		for _, attr := range spec.Attrs {
			oldVal := element.destAttrs[attr.Name]
			newVal := element.sourceAttrs[attr.Name]
			if !attrEqual(attr, newVal, oldVal) {
				element.changes[attr.Name] = Change{Old: oldVal, New: newVal}
			}
		}
		if len(element.changes) > 0 {
			element.action = ActionUpdate
		} else {
			element.action = ActionSkip
		}
	}

	// Children are compared regardless of the parent's own action: a parent
	// can be skip while a child was added or removed underneath it.
	for _, childType := range spec.Children {
		childSpec, _ := d.registry.Type(childType)

		srcIDs, ok := d.resolveChildren(state, src, state.source, childType)
		if !ok {
			continue
		}
		dstIDs, ok := d.resolveChildren(state, dst, state.dest, childType)
		if !ok {
			continue
		}

		srcChildren := indexByID(state.source, childType)
		dstChildren := indexByID(state.dest, childType)

		for _, childID := range unionOrdered(dstIDs, srcIDs) {
			var srcChild, dstChild *store.Record
			if contains(srcIDs, childID) {
				srcChild = srcChildren[childID]
			}
			if contains(dstIDs, childID) {
				dstChild = dstChildren[childID]
			}
			element.children = append(element.children,
				d.diffPair(state, childSpec, childID, srcChild, dstChild))
		}
	}

	return element
}

// resolveChildren returns the ordered child ids a record references,
// verifying that every referenced child actually exists in its store. A
// dangling reference is recorded as an anomaly and excludes that record's
// child collection from the comparison without aborting the pass.
func (d *Differ) resolveChildren(state *diffState, rec *store.Record, st *store.Store, childType string) ([]string, bool) {
	if rec == nil {
		return nil, true
	}
	ids := rec.ChildIDs(childType)
	if _, err := st.GetByIDs(childType, ids); err != nil {
		d.logger.Warn("unresolvable child reference",
			zap.String("store", st.Name),
			zap.String("type", rec.Type()),
			zap.String("unique_id", rec.ID()),
			zap.Error(err),
		)
		state.result.anomalies = append(state.result.anomalies, Anomaly{
			Type:    rec.Type(),
			ID:      rec.ID(),
			Message: fmt.Sprintf("child lookup in %s: %v", st.Name, err),
		})
		return nil, false
	}
	return ids, true
}

// attrEqual compares two attribute values. Collection values are compared
// order-insensitively unless the attribute is declared order-sensitive;
// everything else uses value equality.
func attrEqual(attr schema.Attr, a, b any) bool {
	if !attr.OrderSensitive {
		if as, ok := a.([]string); ok {
			bs, ok := b.([]string)
			if !ok {
				return false
			}
			return equalUnordered(as, bs)
		}
	}
	return reflect.DeepEqual(a, b)
}

func equalUnordered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// unionOrdered merges two id lists under the deterministic ordering policy:
// everything in primary keeps its order, then ids only in secondary follow
// in secondary order.
func unionOrdered(primary, secondary []string) []string {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	out := make([]string, 0, len(primary)+len(secondary))
	for _, id := range primary {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range secondary {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func indexByID(st *store.Store, typeName string) map[string]*store.Record {
	index := make(map[string]*store.Record, st.Len(typeName))
	for rec := range st.All(typeName) {
		index[rec.ID()] = rec
	}
	return index
}

func contains(ids []string, uid string) bool {
	for _, id := range ids {
		if id == uid {
			return true
		}
	}
	return false
}
