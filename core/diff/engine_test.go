package diff

import (
	"testing"

	"inventory-sync/core/schema"
	"inventory-sync/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	registry, err := schema.NewRegistry(
		&schema.TypeSpec{
			Name:        "device",
			Identifiers: []string{"name"},
			Attrs: []schema.Attr{
				{Name: "role", Kind: schema.KindString},
			},
			Children: []string{"interface"},
		},
		&schema.TypeSpec{
			Name:        "interface",
			Identifiers: []string{"device", "name"},
			Attrs: []schema.Attr{
				{Name: "mtu", Kind: schema.KindInt},
				{Name: "tagged_vlans", Kind: schema.KindStringList},
				{Name: "acl_entries", Kind: schema.KindStringList, OrderSensitive: true},
			},
		},
		&schema.TypeSpec{
			Name:        "vlan",
			Identifiers: []string{"vid"},
			Attrs: []schema.Attr{
				{Name: "name", Kind: schema.KindString},
			},
		},
	)
	require.NoError(t, err)
	return registry
}

func addRecord(t *testing.T, registry *schema.Registry, st *store.Store, typeName string, values map[string]any) *store.Record {
	t.Helper()
	rec, err := registry.NewRecord(typeName, values)
	require.NoError(t, err)
	require.NoError(t, st.Add(rec))
	return rec
}

func TestDiffCreateWithChildren(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{
		"device": "r1", "name": "eth0", "mtu": 1500,
	})

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)
	assert.True(t, d.HasChanges())

	elements := d.Elements()
	require.Len(t, elements, 1)

	device := elements[0]
	assert.Equal(t, "device", device.Type())
	assert.Equal(t, "r1", device.ID())
	assert.Equal(t, ActionCreate, device.Action())
	assert.Equal(t, map[string]any{"name": "r1"}, device.Identifiers())
	assert.Equal(t, map[string]any{"role": "edge"}, device.NewValues())

	children := device.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "interface", children[0].Type())
	assert.Equal(t, "r1__eth0", children[0].ID())
	assert.Equal(t, ActionCreate, children[0].Action())
}

func TestDiffUpdateParentSkipChild(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	for _, side := range []*store.Store{src, dst} {
		role := "core"
		if side == dst {
			role = "edge"
		}
		addRecord(t, registry, side, "device", map[string]any{
			"name": "r1", "role": role, "interface": []string{"r1__eth0"},
		})
		addRecord(t, registry, side, "interface", map[string]any{
			"device": "r1", "name": "eth0", "mtu": 1500,
		})
	}

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)

	elements := d.Elements()
	require.Len(t, elements, 1)
	device := elements[0]
	assert.Equal(t, ActionUpdate, device.Action())
	assert.Equal(t, map[string]Change{"role": {Old: "edge", New: "core"}}, device.Changes())

	children := device.Children()
	require.Len(t, children, 1)
	assert.Equal(t, ActionSkip, children[0].Action())
	assert.Empty(t, children[0].Changes())
}

func TestDiffSkipParentChangedChild(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	for _, side := range []*store.Store{src, dst} {
		mtu := 9000
		if side == dst {
			mtu = 1500
		}
		addRecord(t, registry, side, "device", map[string]any{
			"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
		})
		addRecord(t, registry, side, "interface", map[string]any{
			"device": "r1", "name": "eth0", "mtu": mtu,
		})
	}

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)

	device := d.Elements()[0]
	assert.Equal(t, ActionSkip, device.Action())
	// The skip parent still reports changes because its subtree has one.
	assert.True(t, device.HasChanges())
	assert.True(t, d.HasChanges())

	child := device.Children()[0]
	assert.Equal(t, ActionUpdate, child.Action())
	assert.Equal(t, map[string]Change{"mtu": {Old: 1500, New: 9000}}, child.Changes())
}

func TestDiffSymmetry(t *testing.T) {
	registry := testRegistry(t)
	a := store.New("a")
	b := store.New("b")

	addRecord(t, registry, a, "vlan", map[string]any{"vid": "100", "name": "users"})

	forward, err := NewDiffer(registry, nil).Diff(a, b)
	require.NoError(t, err)
	backward, err := NewDiffer(registry, nil).Diff(b, a)
	require.NoError(t, err)

	require.Len(t, forward.Elements(), 1)
	require.Len(t, backward.Elements(), 1)
	assert.Equal(t, ActionCreate, forward.Elements()[0].Action())
	assert.Equal(t, ActionDelete, backward.Elements()[0].Action())
	assert.Equal(t, forward.Elements()[0].ID(), backward.Elements()[0].ID())
}

func TestDiffIdenticalStoresNoChanges(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	for _, side := range []*store.Store{src, dst} {
		addRecord(t, registry, side, "vlan", map[string]any{"vid": "100", "name": "users"})
	}

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)
	assert.False(t, d.HasChanges())
	assert.Empty(t, d.ChangedElements())

	// Every identity still has an element, carried as skip.
	require.Len(t, d.Elements(), 1)
	assert.Equal(t, ActionSkip, d.Elements()[0].Action())
}

func TestDiffDeterministicSerialization(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "core", "interface": []string{"r1__eth0", "r1__eth1"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0", "mtu": 1500})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth1", "mtu": 9000})
	addRecord(t, registry, src, "vlan", map[string]any{"vid": "100", "name": "users"})
	addRecord(t, registry, dst, "device", map[string]any{"name": "r2", "role": "edge"})

	differ := NewDiffer(registry, nil)
	first, err := differ.Diff(src, dst)
	require.NoError(t, err)
	second, err := differ.Diff(src, dst)
	require.NoError(t, err)

	firstJSON, err := first.Serialize()
	require.NoError(t, err)
	secondJSON, err := second.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestDiffOrderingPolicy(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	// Destination order wins for shared ids; source-only ids follow in
	// source order.
	for _, vid := range []string{"300", "100"} {
		addRecord(t, registry, dst, "vlan", map[string]any{"vid": vid, "name": "n" + vid})
	}
	for _, vid := range []string{"100", "200", "300", "400"} {
		addRecord(t, registry, src, "vlan", map[string]any{"vid": vid, "name": "n" + vid})
	}

	d, err := NewDiffer(registry, nil).Diff(src, dst, "vlan")
	require.NoError(t, err)

	var ids []string
	for _, el := range d.Elements() {
		ids = append(ids, el.ID())
	}
	assert.Equal(t, []string{"300", "100", "200", "400"}, ids)
}

func TestDiffCollectionOrderInsensitiveByDefault(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "interface", map[string]any{
		"device": "r1", "name": "eth0", "tagged_vlans": []string{"100", "200"},
	})
	addRecord(t, registry, dst, "interface", map[string]any{
		"device": "r1", "name": "eth0", "tagged_vlans": []string{"200", "100"},
	})

	d, err := NewDiffer(registry, nil).Diff(src, dst, "interface")
	require.NoError(t, err)
	assert.False(t, d.HasChanges())
}

func TestDiffCollectionOrderSensitiveWhenDeclared(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "interface", map[string]any{
		"device": "r1", "name": "eth0", "acl_entries": []string{"permit a", "deny b"},
	})
	addRecord(t, registry, dst, "interface", map[string]any{
		"device": "r1", "name": "eth0", "acl_entries": []string{"deny b", "permit a"},
	})

	d, err := NewDiffer(registry, nil).Diff(src, dst, "interface")
	require.NoError(t, err)
	assert.True(t, d.HasChanges())
	assert.Equal(t, ActionUpdate, d.Elements()[0].Action())
}

func TestDiffOrphanChildCoveredOnce(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	// eth0 hangs off r1; eth9 is referenced by no device on either side.
	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0"})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r9", "name": "eth9"})

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)

	var covered []string
	var walk func(*Element)
	walk = func(el *Element) {
		covered = append(covered, el.Type()+"/"+el.ID())
		for _, child := range el.Children() {
			walk(child)
		}
	}
	for _, el := range d.Elements() {
		walk(el)
	}

	assert.ElementsMatch(t, []string{"device/r1", "interface/r1__eth0", "interface/r9__eth9"}, covered)
}

func TestDiffExplicitTypesCoverOrphans(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0"})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r9", "name": "eth0"})

	// Naming the types must not lose the interface no device references.
	d, err := NewDiffer(registry, nil).Diff(src, dst, "device", "interface")
	require.NoError(t, err)

	var covered []string
	var walk func(*Element)
	walk = func(el *Element) {
		covered = append(covered, el.Type()+"/"+el.ID())
		for _, child := range el.Children() {
			walk(child)
		}
	}
	for _, el := range d.Elements() {
		walk(el)
	}

	assert.ElementsMatch(t, []string{"device/r1", "interface/r1__eth0", "interface/r9__eth0"}, covered)
}

func TestDiffDanglingChildReference(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__ghost"},
	})

	d, err := NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)

	anomalies := d.Anomalies()
	require.Len(t, anomalies, 1)
	assert.Equal(t, "device", anomalies[0].Type)
	assert.Equal(t, "r1", anomalies[0].ID)

	// The device itself is still diffed; only its child collection is
	// excluded.
	require.Len(t, d.Elements(), 1)
	assert.Equal(t, ActionCreate, d.Elements()[0].Action())
	assert.Empty(t, d.Elements()[0].Children())
}

func TestDiffUndeclaredType(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	_, err := NewDiffer(registry, nil).Diff(src, dst, "rack")
	assert.ErrorContains(t, err, "rack")
}

func TestDiffExplicitTypesRestrict(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "vlan", map[string]any{"vid": "100", "name": "users"})
	addRecord(t, registry, src, "device", map[string]any{"name": "r1", "role": "edge"})

	d, err := NewDiffer(registry, nil).Diff(src, dst, "vlan")
	require.NoError(t, err)

	require.Len(t, d.Elements(), 1)
	assert.Equal(t, "vlan", d.Elements()[0].Type())
}
