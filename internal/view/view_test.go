package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
)

type memLoader map[string]panel.Snapshot

func (m memLoader) Load(_ context.Context, id string) (panel.Snapshot, error) {
	s, ok := m[id]
	if !ok {
		return panel.Snapshot{}, panel.ErrUnknownPanel
	}
	return s, nil
}

func (m memLoader) put(id, typ string, attrs panel.AttrDiff, slots map[panel.SlotKey]string) {
	m[id] = panel.Snapshot{ID: id, Type: typ, Attrs: attrs, Slots: slots}
}

func elem(i int) panel.SlotKey { return panel.SlotKey{Name: "elem", Index: i} }

func newBuilder(t *testing.T, l memLoader, depth int) *Builder {
	t.Helper()
	reg, err := paneltype.Builtin()
	require.NoError(t, err)
	return NewBuilder(l, reg, depth)
}

func fixture() memLoader {
	l := memLoader{}
	l.put("home", "vshelf", nil, map[panel.SlotKey]string{elem(0): "a", elem(1): "f", elem(2): "a"})
	l.put("a", "task", panel.AttrDiff{"checked": false}, nil)
	l.put("b", "task", panel.AttrDiff{"checked": false}, nil)
	l.put("f", "footnote", nil, map[panel.SlotKey]string{{Name: "body", Index: 0}: "a"})
	return l
}

func TestBuildAndResolve(t *testing.T) {
	ctx := context.Background()
	v, err := Open(ctx, newBuilder(t, fixture(), 0), "home")
	require.NoError(t, err)
	require.NotEmpty(t, v.ID)

	require.Equal(t, []string{"a", "f", "a"}, v.Root.ListIDs("elem"))
	occ := v.Occurrences("a")
	require.Len(t, occ, 3)
	require.NotSame(t, occ[0], occ[1])

	inst, err := v.Resolve(panel.Path{{Slot: "elem", Index: 1}, {Slot: "body", Index: 0}})
	require.NoError(t, err)
	require.Equal(t, "a", inst.ID)
	require.Equal(t, "elem:1/body:0", inst.Path().String())
	require.Equal(t, 2, inst.Depth())

	_, err = v.Resolve(panel.Path{{Slot: "elem", Index: 7}})
	require.ErrorIs(t, err, ErrOutOfSync)
}

func TestDeliverPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	l := fixture()
	v, err := Open(ctx, newBuilder(t, l, 0), "home")
	require.NoError(t, err)
	before := append([]*Instance(nil), v.Root.lists["elem"].Items...)

	// remove the first a
	err = v.Deliver(ctx, "home", nil, nil, panel.SlotDiff{elem(0): "f", elem(1): "a", elem(2): panel.Tombstone})
	require.NoError(t, err)
	after := v.Root.lists["elem"].Items
	require.Equal(t, []string{"f", "a"}, v.Root.ListIDs("elem"))
	require.Same(t, before[1], after[0])
	require.Same(t, before[0], after[1])
	require.Equal(t, 0, after[0].Index())
	require.Equal(t, 1, after[1].Index())
	require.Nil(t, before[2].Parent())

	// the moved footnote keeps its own child
	body, err := v.Resolve(panel.Path{{Slot: "elem", Index: 0}, {Slot: "body", Index: 0}})
	require.NoError(t, err)
	require.Equal(t, "a", body.ID)

	// attributes land on the addressed occurrence only
	err = v.Deliver(ctx, "a", panel.Path{{Slot: "elem", Index: 1}}, panel.AttrDiff{"checked": true}, nil)
	require.NoError(t, err)
	require.Equal(t, true, after[1].Attrs["checked"])
	require.Equal(t, false, body.Attrs["checked"])
}

func TestDeliverNewChildAndSingles(t *testing.T) {
	ctx := context.Background()
	l := fixture()
	v, err := Open(ctx, newBuilder(t, l, 0), "home")
	require.NoError(t, err)

	path := panel.Path{{Slot: "elem", Index: 1}}
	require.NoError(t, v.Deliver(ctx, "f", path, nil, panel.SlotDiff{{Name: "body", Index: 0}: "b"}))
	fn, err := v.Resolve(path)
	require.NoError(t, err)
	child, err := fn.ChildAt(panel.SlotKey{Name: "body", Index: 0})
	require.NoError(t, err)
	require.Equal(t, "b", child.ID)
	require.Same(t, fn, child.Parent())

	require.NoError(t, v.Deliver(ctx, "f", path, nil, panel.SlotDiff{{Name: "body", Index: 0}: panel.Tombstone}))
	_, err = fn.ChildAt(panel.SlotKey{Name: "body", Index: 0})
	require.ErrorIs(t, err, ErrOutOfSync)
	require.Empty(t, fn.Children())
}

func TestDeliverFailureLeavesInstance(t *testing.T) {
	ctx := context.Background()
	v, err := Open(ctx, newBuilder(t, fixture(), 0), "home")
	require.NoError(t, err)

	err = v.Deliver(ctx, "home", nil, nil, panel.SlotDiff{elem(0): "ghost"})
	require.ErrorIs(t, err, panel.ErrUnknownPanel)
	require.Equal(t, []string{"a", "f", "a"}, v.Root.ListIDs("elem"))

	err = v.Deliver(ctx, "home", nil, nil, panel.SlotDiff{elem(5): "a"})
	require.ErrorIs(t, err, panel.ErrIndexGap)

	err = v.Deliver(ctx, "home", nil, nil, panel.SlotDiff{{Name: "nope", Index: 0}: "a"})
	require.ErrorIs(t, err, panel.ErrNoSuchSlot)

	err = v.Deliver(ctx, "f", nil, nil, nil)
	require.ErrorIs(t, err, ErrOutOfSync)
}

func TestCyclesTruncate(t *testing.T) {
	ctx := context.Background()
	l := memLoader{}
	l.put("s", "vshelf", nil, map[panel.SlotKey]string{elem(0): "t"})
	l.put("t", "vshelf", nil, map[panel.SlotKey]string{elem(0): "s"})

	v, err := Open(ctx, newBuilder(t, l, 0), "s")
	require.NoError(t, err)
	inner, err := v.Resolve(panel.Path{{Slot: "elem", Index: 0}, {Slot: "elem", Index: 0}})
	require.NoError(t, err)
	require.Equal(t, "s", inner.ID)
	require.True(t, inner.Truncated)
	require.Empty(t, inner.Children())

	// truncated occurrences ignore slot updates
	require.NoError(t, inner.ApplySlotDiff(ctx, panel.SlotDiff{elem(0): "s"}))
	require.Empty(t, inner.Children())

	deep := memLoader{}
	deep.put("n0", "vshelf", nil, map[panel.SlotKey]string{elem(0): "n1"})
	deep.put("n1", "vshelf", nil, map[panel.SlotKey]string{elem(0): "n2"})
	deep.put("n2", "vshelf", nil, map[panel.SlotKey]string{elem(0): "n3"})
	deep.put("n3", "vshelf", nil, nil)
	v, err = Open(ctx, newBuilder(t, deep, 2), "n0")
	require.NoError(t, err)
	n2, err := v.Resolve(panel.Path{{Slot: "elem", Index: 0}, {Slot: "elem", Index: 0}})
	require.NoError(t, err)
	require.True(t, n2.Truncated)
}
