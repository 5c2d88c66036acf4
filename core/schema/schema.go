package schema

import (
	"errors"
	"fmt"
	"strings"

	"inventory-sync/core/store"
	"inventory-sync/core/utils"
)

// UniqueIDSeparator joins identifying attribute values into a unique id.
// "r1" + "eth0" becomes "r1__eth0".
const UniqueIDSeparator = "__"

// ErrValidation indicates that a set of attribute values does not satisfy
// the declared type spec (missing identifier, unknown attribute). It is
// fatal for that single record's inclusion, never for the whole load.
var ErrValidation = errors.New("record validation failed")

// AttrKind declares how an attribute value is coerced at record
// construction time.
type AttrKind string

const (
	// KindString coerces the value with utils.ToString.
	KindString AttrKind = "string"
	// KindInt coerces the value with utils.ToInt.
	KindInt AttrKind = "int"
	// KindBool coerces the value with utils.ToBool.
	KindBool AttrKind = "bool"
	// KindStringList coerces the value with utils.ToStringSlice.
	KindStringList AttrKind = "string_list"
)

// Attr declares one non-identifying attribute of a type.
type Attr struct {
	// Name is the attribute name as it appears in records and diffs.
	Name string

	// Kind selects the coercion applied at record construction.
	Kind AttrKind

	// OrderSensitive controls comparison of collection values. The default
	// (false) compares collections order-insensitively; set true for lists
	// whose element order is meaningful (e.g. ACL entries).
	OrderSensitive bool
}

// TypeSpec declares one record type: which attributes form its identity,
// which are comparable data, and which child types it references.
type TypeSpec struct {
	// Name is the type name (e.g. "device").
	Name string

	// Identifiers are the attribute names whose values, joined with
	// UniqueIDSeparator in declaration order, form the unique id.
	// Identifying attributes are immutable after construction.
	Identifiers []string

	// Attrs are the non-identifying, comparable attributes.
	Attrs []Attr

	// Children are the child type names this type references by unique id.
	Children []string
}

// Attr returns the declaration for a non-identifying attribute name.
func (t *TypeSpec) Attr(name string) (Attr, bool) {
	for _, a := range t.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// UniqueID computes the deterministic unique id for the given identifier
// values.
func (t *TypeSpec) UniqueID(identifiers map[string]any) string {
	parts := make([]string, 0, len(t.Identifiers))
	for _, name := range t.Identifiers {
		parts = append(parts, utils.ToString(identifiers[name]))
	}
	return strings.Join(parts, UniqueIDSeparator)
}

// Registry holds the declared type specs for one reconciliation run. It is
// passed explicitly into the diff engine and the executor; there is no
// global type registry.
type Registry struct {
	specs map[string]*TypeSpec
	order []string
}

// NewRegistry builds a registry from type declarations. Declaration order is
// preserved and used as the default diff order for types.
func NewRegistry(specs ...*TypeSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*TypeSpec)}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("type spec with empty name")
		}
		if len(spec.Identifiers) == 0 {
			return nil, fmt.Errorf("type %q declares no identifying attributes", spec.Name)
		}
		if _, exists := r.specs[spec.Name]; exists {
			return nil, fmt.Errorf("type %q declared twice", spec.Name)
		}
		r.specs[spec.Name] = spec
		r.order = append(r.order, spec.Name)
	}

	// Child references must resolve to declared types, since the diff
	// engine recurses along them.
	for _, spec := range r.specs {
		for _, child := range spec.Children {
			if _, ok := r.specs[child]; !ok {
				return nil, fmt.Errorf("type %q references undeclared child type %q", spec.Name, child)
			}
		}
	}

	return r, nil
}

// Type returns the spec for a type name.
func (r *Registry) Type(name string) (*TypeSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Types returns the declared type names in declaration order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NewRecord validates and coerces a flat value map against the declared
// spec for typeName and constructs a store.Record. The values map holds
// both identifying and non-identifying attributes; child id lists may be
// supplied under the child type name.
//
// Validation failures are reported as ErrValidation and exclude only this
// record, never the whole load.
func (r *Registry) NewRecord(typeName string, values map[string]any) (*store.Record, error) {
	spec, ok := r.specs[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, typeName)
	}

	identifiers := make(map[string]any, len(spec.Identifiers))
	for _, name := range spec.Identifiers {
		value, present := values[name]
		if !present || utils.ToString(value) == "" {
			return nil, fmt.Errorf("%w: %s is missing identifier %q", ErrValidation, typeName, name)
		}
		identifiers[name] = utils.ToString(value)
	}

	attrs := make(map[string]any, len(spec.Attrs))
	for _, attr := range spec.Attrs {
		value, present := values[attr.Name]
		if !present {
			continue
		}
		attrs[attr.Name] = coerce(attr.Kind, value)
	}

	// Reject stray attribute names early: silently dropping them would hide
	// typos in snapshot files until a diff looked wrong.
	for name := range values {
		if r.isDeclared(spec, name) {
			continue
		}
		return nil, fmt.Errorf("%w: %s has undeclared attribute %q", ErrValidation, typeName, name)
	}

	rec := store.NewRecord(typeName, spec.UniqueID(identifiers), identifiers, attrs)
	for _, child := range spec.Children {
		if value, present := values[child]; present {
			rec.SetChildIDs(child, utils.ToStringSlice(value))
		}
	}
	return rec, nil
}

func (r *Registry) isDeclared(spec *TypeSpec, name string) bool {
	for _, id := range spec.Identifiers {
		if id == name {
			return true
		}
	}
	if _, ok := spec.Attr(name); ok {
		return true
	}
	for _, child := range spec.Children {
		if child == name {
			return true
		}
	}
	return false
}

func coerce(kind AttrKind, value any) any {
	if value == nil {
		return nil
	}
	switch kind {
	case KindInt:
		return utils.ToInt(value)
	case KindBool:
		return utils.ToBool(value)
	case KindStringList:
		return utils.ToStringSlice(value)
	default:
		return utils.ToString(value)
	}
}
