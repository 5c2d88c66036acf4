package source

import (
	"os"
	"path/filepath"
	"testing"

	"inventory-sync/feature/inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const yamlSnapshot = `
device:
  - name: r1
    role: edge
    site: fra1
    interface:
      - r1__eth0
interface:
  - device: r1
    name: eth0
    enabled: true
    mtu: 9000
    tagged_vlans: ["100", "200"]
vlan:
  - vid: 100
    name: users
`

const jsonSnapshot = `{
  "device": [
    {"name": "r1", "role": "edge", "interface": ["r1__eth0"]}
  ],
  "interface": [
    {"device": "r1", "name": "eth0", "mtu": 9000}
  ]
}`

func writeSnapshot(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	registry := models.MustRegistry()
	path := writeSnapshot(t, "inventory.yaml", yamlSnapshot)

	st, err := LoadFile(registry, "file", path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Len("device"))
	assert.Equal(t, 1, st.Len("interface"))
	assert.Equal(t, 1, st.Len("vlan"))

	device, err := st.Get("device", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1__eth0"}, device.ChildIDs("interface"))

	iface, err := st.Get("interface", "r1__eth0")
	require.NoError(t, err)
	mtu, _ := iface.Attr("mtu")
	assert.Equal(t, 9000, mtu)
	enabled, _ := iface.Attr("enabled")
	assert.Equal(t, true, enabled)
	vlans, _ := iface.Attr("tagged_vlans")
	assert.Equal(t, []string{"100", "200"}, vlans)
}

func TestLoadFileJSON(t *testing.T) {
	registry := models.MustRegistry()
	path := writeSnapshot(t, "inventory.json", jsonSnapshot)

	st, err := LoadFile(registry, "file", path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Len("device"))
	iface, err := st.Get("interface", "r1__eth0")
	require.NoError(t, err)
	mtu, _ := iface.Attr("mtu")
	assert.Equal(t, 9000, mtu)
}

func TestLoadFileSkipsInvalidRecords(t *testing.T) {
	registry := models.MustRegistry()
	path := writeSnapshot(t, "inventory.yaml", `
device:
  - role: edge
  - name: r2
    role: core
`)

	st, err := LoadFile(registry, "file", path, zap.NewNop())
	require.NoError(t, err)

	// The record without a name is skipped, the valid one survives.
	assert.Equal(t, 1, st.Len("device"))
	_, err = st.Get("device", "r2")
	assert.NoError(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	registry := models.MustRegistry()

	_, err := LoadFile(registry, "file", filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadFileMalformed(t *testing.T) {
	registry := models.MustRegistry()
	path := writeSnapshot(t, "inventory.json", `{"device": [`)

	_, err := LoadFile(registry, "file", path, zap.NewNop())
	assert.Error(t, err)
}
