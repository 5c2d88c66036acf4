package reconcile

import (
	"context"
	"fmt"
	"testing"

	"inventory-sync/core/diff"
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

// recordingAdapter records every backing-system call in order and fails the
// ones listed in failOn.
type recordingAdapter struct {
	calls  []string
	failOn map[string]error
}

func newRecordingAdapter() *recordingAdapter {
	return &recordingAdapter{failOn: make(map[string]error)}
}

func (a *recordingAdapter) record(action, typeName, uid string) error {
	key := fmt.Sprintf("%s %s %s", action, typeName, uid)
	a.calls = append(a.calls, key)
	return a.failOn[key]
}

func (a *recordingAdapter) Create(_ context.Context, typeName string, ids, _ map[string]any) error {
	uid := fmt.Sprint(ids["name"])
	if device, ok := ids["device"]; ok {
		uid = fmt.Sprintf("%v__%v", device, ids["name"])
	}
	return a.record("create", typeName, uid)
}

func (a *recordingAdapter) Update(_ context.Context, rec *store.Record, _ map[string]any) error {
	return a.record("update", rec.Type(), rec.ID())
}

func (a *recordingAdapter) Delete(_ context.Context, rec *store.Record) error {
	return a.record("delete", rec.Type(), rec.ID())
}

func computeDiff(t *testing.T, registry *schema.Registry, src, dst *store.Store) *diff.Diff {
	t.Helper()
	d, err := diff.NewDiffer(registry, nil).Diff(src, dst)
	require.NoError(t, err)
	return d
}

func TestApplyCreatesParentBeforeChild(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0", "mtu": 1500})

	adapter := newRecordingAdapter()
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"create device r1", "create interface r1__eth0"}, adapter.calls)
	assert.Equal(t, 2, summary.Creates.Attempted)
	assert.Equal(t, 2, summary.Creates.Succeeded)
	assert.Empty(t, summary.Failures)
	assert.NotEmpty(t, summary.RunID)

	// The destination store now mirrors the source, including linkage.
	device, err := dst.Get("device", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1__eth0"}, device.ChildIDs("interface"))
	status, message := device.Status()
	assert.Equal(t, store.StatusSuccess, status)
	assert.Equal(t, "created", message)
}

func TestApplyIsIdempotent(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0", "mtu": 1500})
	addRecord(t, registry, dst, "device", map[string]any{"name": "r2", "role": "core"})

	executor := NewExecutor(registry, newRecordingAdapter(), nil)
	_, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)

	// A second diff against the reconciled destination is all-skip.
	second := computeDiff(t, registry, src, dst)
	assert.False(t, second.HasChanges())

	summary, err := executor.Apply(context.Background(), second, dst)
	require.NoError(t, err)
	assert.False(t, summary.Changed())
	assert.Empty(t, summary.Operations)
}

func TestApplyDeletesChildrenFirst(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, dst, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0", "r1__eth1"},
	})
	addRecord(t, registry, dst, "interface", map[string]any{"device": "r1", "name": "eth0"})
	addRecord(t, registry, dst, "interface", map[string]any{"device": "r1", "name": "eth1"})

	adapter := newRecordingAdapter()
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"delete interface r1__eth0",
		"delete interface r1__eth1",
		"delete device r1",
	}, adapter.calls)
	assert.Equal(t, 3, summary.Deletes.Succeeded)

	// The execution log carries the same order.
	require.Len(t, summary.Operations, 3)
	assert.Equal(t, "device", summary.Operations[2].Type)
	assert.Equal(t, 3, summary.Operations[2].Seq)

	assert.Equal(t, 0, dst.Len("device"))
	assert.Equal(t, 0, dst.Len("interface"))
}

func TestApplyFailedCreateSkipsChildren(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0"})
	addRecord(t, registry, src, "device", map[string]any{"name": "r2", "role": "core"})

	adapter := newRecordingAdapter()
	adapter.failOn["create device r1"] = fmt.Errorf("backend unavailable")
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)

	// The child of the failed parent is never attempted; the sibling
	// subtree still is.
	assert.Equal(t, []string{"create device r1", "create device r2"}, adapter.calls)
	assert.Equal(t, 2, summary.Creates.Attempted)
	assert.Equal(t, 1, summary.Creates.Succeeded)
	assert.Equal(t, 1, summary.Creates.Failed)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, diff.ActionCreate, summary.Failures[0].Action)
	assert.Equal(t, "r1", summary.Failures[0].ID)
	assert.Equal(t, "backend unavailable", summary.Failures[0].Message)

	// Only the successful create landed in the destination.
	_, err = dst.Get("device", "r1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = dst.Get("device", "r2")
	assert.NoError(t, err)
}

func TestApplyCreateStoreConflictCountsAsFailure(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{
		"name": "r1", "role": "edge", "interface": []string{"r1__eth0"},
	})
	addRecord(t, registry, src, "interface", map[string]any{"device": "r1", "name": "eth0"})

	d := computeDiff(t, registry, src, dst)

	// The identity lands in the destination between diff and apply, so the
	// backing create goes through but the store add collides.
	addRecord(t, registry, dst, "device", map[string]any{"name": "r1", "role": "core"})

	adapter := newRecordingAdapter()
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(context.Background(), d, dst)
	require.NoError(t, err)

	// The adapter call happened, but the element counts as failed and its
	// children are never attempted.
	assert.Equal(t, []string{"create device r1"}, adapter.calls)
	assert.Equal(t, 1, summary.Creates.Attempted)
	assert.Equal(t, 0, summary.Creates.Succeeded)
	assert.Equal(t, 1, summary.Creates.Failed)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, diff.ActionCreate, summary.Failures[0].Action)
	assert.Equal(t, "r1", summary.Failures[0].ID)
	assert.Contains(t, summary.Failures[0].Message, store.ErrDuplicateID.Error())

	require.Len(t, summary.Operations, 1)
	assert.Equal(t, store.StatusFailure, summary.Operations[0].Status)
}

func TestApplyFailedUpdateLeavesStoreUntouched(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{"name": "r1", "role": "core"})
	rec := addRecord(t, registry, dst, "device", map[string]any{"name": "r1", "role": "edge"})

	adapter := newRecordingAdapter()
	adapter.failOn["update device r1"] = fmt.Errorf("write denied")
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Updates.Failed)
	role, _ := rec.Attr("role")
	assert.Equal(t, "edge", role)
	status, _ := rec.Status()
	assert.Equal(t, store.StatusFailure, status)
}

func TestApplyCallbackFiresOnlyOnChanges(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	for _, side := range []*store.Store{src, dst} {
		addRecord(t, registry, side, "device", map[string]any{"name": "r1", "role": "edge"})
	}

	fired := 0
	executor := NewExecutor(registry, newRecordingAdapter(), nil)
	executor.OnComplete = func(changed []*diff.Element, summary *Summary) {
		fired++
	}

	_, err := executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	addRecord(t, registry, src, "device", map[string]any{"name": "r2", "role": "core"})

	var gotChanged []*diff.Element
	executor.OnComplete = func(changed []*diff.Element, summary *Summary) {
		fired++
		gotChanged = changed
		assert.NotEmpty(t, summary.RunID)
	}

	_, err = executor.Apply(context.Background(), computeDiff(t, registry, src, dst), dst)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, gotChanged, 1)
	assert.Equal(t, "r2", gotChanged[0].ID())
}

func TestApplyHonorsCancellation(t *testing.T) {
	registry := testRegistry(t)
	src := store.New("src")
	dst := store.New("dst")

	addRecord(t, registry, src, "device", map[string]any{"name": "r1", "role": "edge"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := newRecordingAdapter()
	executor := NewExecutor(registry, adapter, nil)

	summary, err := executor.Apply(ctx, computeDiff(t, registry, src, dst), dst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, summary)
	assert.Empty(t, adapter.calls)
}

func TestApplyUsageErrors(t *testing.T) {
	registry := testRegistry(t)
	executor := NewExecutor(registry, newRecordingAdapter(), nil)

	_, err := executor.Apply(context.Background(), nil, store.New("dst"))
	assert.Error(t, err)

	src := store.New("src")
	dst := store.New("dst")
	_, err = executor.Apply(context.Background(), computeDiff(t, registry, src, dst), nil)
	assert.Error(t, err)
}
