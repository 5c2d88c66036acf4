package models

import "inventory-sync/core/schema"

// Type names of the network inventory schema.
const (
	TypeDevice    = "device"
	TypeInterface = "interface"
	TypeVLAN      = "vlan"
)

// NewRegistry declares the network inventory schema: devices own
// interfaces; VLANs stand alone and are referenced from interfaces by id.
func NewRegistry() (*schema.Registry, error) {
	return schema.NewRegistry(
		&schema.TypeSpec{
			Name:        TypeDevice,
			Identifiers: []string{"name"},
			Attrs: []schema.Attr{
				{Name: "role", Kind: schema.KindString},
				{Name: "site", Kind: schema.KindString},
				{Name: "platform", Kind: schema.KindString},
			},
			Children: []string{TypeInterface},
		},
		&schema.TypeSpec{
			Name:        TypeInterface,
			Identifiers: []string{"device", "name"},
			Attrs: []schema.Attr{
				{Name: "description", Kind: schema.KindString},
				{Name: "enabled", Kind: schema.KindBool},
				{Name: "mtu", Kind: schema.KindInt},
				// VLAN membership is a set; element order carries no meaning.
				{Name: "tagged_vlans", Kind: schema.KindStringList},
			},
		},
		&schema.TypeSpec{
			Name:        TypeVLAN,
			Identifiers: []string{"vid"},
			Attrs: []schema.Attr{
				{Name: "name", Kind: schema.KindString},
				{Name: "description", Kind: schema.KindString},
			},
		},
	)
}

// MustRegistry is NewRegistry for wiring paths where the schema is known
// good (the declarations are compile-time constants).
func MustRegistry() *schema.Registry {
	registry, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}
