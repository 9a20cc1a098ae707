package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/store"
	"github.com/jask/panels/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

func newTestManager(t *testing.T) (*Manager, context.Context) {
	t.Helper()
	db, err := database.Open(database.DriverCgo, filepath.Join(t.TempDir(), "panels.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))

	reg, err := paneltype.Builtin()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	s := store.New(db, reg, store.WithLogger(log))
	m := New(s, reg, WithLogger(log))
	t.Cleanup(m.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return m, ctx
}

func create(t *testing.T, ctx context.Context, m *Manager, tag string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, m.Store().Create(ctx, id, tag))
	}
}

func elem(i int) panel.SlotKey { return panel.SlotKey{Name: "elem", Index: i} }

// home: [a, shelf]; shelf: [a]
func sharedFixture(t *testing.T, ctx context.Context, m *Manager) {
	t.Helper()
	create(t, ctx, m, "vshelf", "home", "shelf")
	create(t, ctx, m, "task", "a", "b")
	_, err := m.Submit(ctx, "shelf", nil, panel.SlotDiff{elem(0): "a"})
	require.NoError(t, err)
	_, err = m.Submit(ctx, "home", nil, panel.SlotDiff{elem(0): "a", elem(1): "shelf"})
	require.NoError(t, err)
}

func checked(t *testing.T, insts []*view.Instance) []any {
	t.Helper()
	out := make([]any, len(insts))
	for i, in := range insts {
		out[i] = in.Attrs["checked"]
	}
	return out
}

func TestSubmitFansOutToEveryOccurrence(t *testing.T) {
	m, ctx := newTestManager(t)
	sharedFixture(t, ctx, m)

	home, err := m.OpenView(ctx, "home", "")
	require.NoError(t, err)
	shelf, err := m.OpenView(ctx, "shelf", "")
	require.NoError(t, err)
	require.Len(t, m.Views(), 2)
	require.Equal(t, []*view.View{shelf}, m.ViewsOf("shelf"))

	rep, err := m.Submit(ctx, "a", panel.AttrDiff{"checked": true}, nil)
	require.NoError(t, err)
	require.Equal(t, Report{Views: 2, Paths: 3, Deliveries: 3}, rep)
	require.Equal(t, []any{true, true}, checked(t, home.Occurrences("a")))
	require.Equal(t, []any{true}, checked(t, shelf.Occurrences("a")))

	// a structural change to the shared shelf reaches both views
	rep, err = m.Submit(ctx, "shelf", nil, panel.SlotDiff{elem(1): "b"})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Deliveries)
	require.Len(t, home.Occurrences("b"), 1)
	require.Len(t, shelf.Occurrences("b"), 1)

	m.CloseView(home)
	rep, err = m.Submit(ctx, "b", panel.AttrDiff{"checked": true}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Views)
}

func TestSubmitRejectedDispatchesNothing(t *testing.T) {
	m, ctx := newTestManager(t)
	sharedFixture(t, ctx, m)
	home, err := m.OpenView(ctx, "home", "")
	require.NoError(t, err)

	rep, err := m.Submit(ctx, "home", nil, panel.SlotDiff{elem(0): panel.Tombstone})
	require.ErrorIs(t, err, panel.ErrIndexGap)
	require.Zero(t, rep)
	require.Equal(t, []string{"a", "shelf"}, home.Root.ListIDs("elem"))

	_, err = m.Submit(ctx, "a", panel.AttrDiff{"checked": "sometimes"}, nil)
	require.ErrorIs(t, err, panel.ErrAttributeKind)
	require.Equal(t, []any{false, false}, checked(t, home.Occurrences("a")))
}

func TestRemovalInsertAndMove(t *testing.T) {
	m, ctx := newTestManager(t)
	sharedFixture(t, ctx, m)
	home, err := m.OpenView(ctx, "home", "")
	require.NoError(t, err)

	_, err = m.RequestInsert(ctx, "home", "elem", 0, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a", "shelf"}, home.Root.ListIDs("elem"))
	shelfInst, err := home.Resolve(panel.Path{{Slot: "elem", Index: 2}})
	require.NoError(t, err)

	_, err = m.Move(ctx, shelfInst, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"shelf", "b", "a"}, home.Root.ListIDs("elem"))
	moved, err := home.Resolve(panel.Path{{Slot: "elem", Index: 0}})
	require.NoError(t, err)
	require.Same(t, shelfInst, moved)

	bInst, err := home.Resolve(panel.Path{{Slot: "elem", Index: 1}})
	require.NoError(t, err)
	_, err = m.RequestRemoval(ctx, bInst)
	require.NoError(t, err)
	require.Equal(t, []string{"shelf", "a"}, home.Root.ListIDs("elem"))
	ok, err := m.Store().Exists(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.RequestRemoval(ctx, home.Root)
	require.ErrorIs(t, err, ErrLocked)
}

func TestInsertChecksAcceptance(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "footnote", "f")
	create(t, ctx, m, "note", "n")
	create(t, ctx, m, "task", "a")

	_, err := m.RequestInsert(ctx, "f", "body", 0, "n")
	require.ErrorIs(t, err, ErrNotAccepted)
	_, err = m.RequestInsert(ctx, "f", "body", 0, "a")
	require.NoError(t, err)
	_, err = m.RequestInsert(ctx, "f", "nope", 0, "a")
	require.ErrorIs(t, err, panel.ErrNoSuchSlot)
	_, err = m.RequestInsert(ctx, "f", "body", 0, "ghost")
	require.ErrorIs(t, err, panel.ErrUnknownPanel)
}

func TestCreateChild(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "vshelf", "home")
	home, err := m.OpenView(ctx, "home", "")
	require.NoError(t, err)

	id, rep, err := m.CreateChild(ctx, "home", "elem", "number")
	require.NoError(t, err)
	require.Equal(t, 1, rep.Deliveries)
	require.Equal(t, []string{id}, home.Root.ListIDs("elem"))
	child, err := home.Resolve(panel.Path{{Slot: "elem", Index: 0}})
	require.NoError(t, err)
	require.Equal(t, int64(0), child.Attrs["value"])

	_, _, err = m.CreateChild(ctx, "home", "elem", paneltype.TypeTag)
	require.ErrorIs(t, err, panel.ErrNotUserCreatable)

	create(t, ctx, m, "footnote", "f")
	_, _, err = m.CreateChild(ctx, "f", "body", "task")
	require.NoError(t, err)
	_, _, err = m.CreateChild(ctx, "f", "body", "task")
	require.ErrorIs(t, err, ErrNotAccepted)
}

func TestOpenViewCreates(t *testing.T) {
	m, ctx := newTestManager(t)
	v, err := m.OpenView(ctx, "inbox", "hshelf")
	require.NoError(t, err)
	require.Equal(t, "hshelf", v.Root.Type)

	again, err := m.OpenView(ctx, "inbox", "hshelf")
	require.NoError(t, err)
	require.NotEqual(t, v.ID, again.ID)

	_, err = m.OpenView(ctx, "ghost", "")
	require.ErrorIs(t, err, panel.ErrUnknownPanel)
}

func TestCyclicGraphTerminates(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "vshelf", "loop")
	create(t, ctx, m, "task", "a")
	_, err := m.Submit(ctx, "loop", nil, panel.SlotDiff{elem(0): "loop", elem(1): "a"})
	require.NoError(t, err)

	v, err := m.OpenView(ctx, "loop", "")
	require.NoError(t, err)
	require.Len(t, v.Occurrences("loop"), 2)

	rep, err := m.Submit(ctx, "a", panel.AttrDiff{"checked": true}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Paths)
	require.Positive(t, rep.Cutoffs)

	rep, err = m.Submit(ctx, "loop", nil, panel.SlotDiff{elem(2): "a"})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Paths)
	require.Equal(t, []string{"loop", "a", "a"}, v.Root.ListIDs("elem"))
}

func TestCycleFormedWhileViewOpen(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "vshelf", "home", "loop")
	_, err := m.Submit(ctx, "home", nil, panel.SlotDiff{elem(0): "loop"})
	require.NoError(t, err)

	v, err := m.OpenView(ctx, "home", "")
	require.NoError(t, err)

	rep, err := m.Submit(ctx, "loop", nil, panel.SlotDiff{elem(0): "loop"})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Paths)
	require.Equal(t, 2, rep.Deliveries)

	occ := v.Occurrences("loop")
	require.Len(t, occ, 2)
	require.False(t, occ[0].Truncated)
	require.True(t, occ[1].Truncated)
	require.Equal(t, []string{"loop"}, occ[0].ListIDs("elem"))

	// attributes still reach the nested occurrence
	create(t, ctx, m, "task", "a")
	rep, err = m.Submit(ctx, "loop", nil, panel.SlotDiff{elem(1): "a"})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Deliveries)
	require.Equal(t, []string{"loop", "a"}, occ[0].ListIDs("elem"))
}

func TestGenerateMonth(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "calendar", "cal")
	_, err := m.Submit(ctx, "cal", panel.AttrDiff{"month": 2, "year": 2026}, nil)
	require.NoError(t, err)

	_, err = m.GenerateMonth(ctx, "cal")
	require.ErrorIs(t, err, ErrNoDailyType)

	require.NoError(t, m.Store().EnsureTypeRegistered(ctx, "task"))
	_, err = m.RequestInsert(ctx, "cal", "daily_type", 0, "task")
	require.NoError(t, err)
	v, err := m.OpenView(ctx, "cal", "")
	require.NoError(t, err)

	_, err = m.GenerateMonth(ctx, "cal")
	require.NoError(t, err)
	slots, err := m.Store().Slots(ctx, "cal")
	require.NoError(t, err)
	// 1 Feb 2026 is a Sunday
	require.Equal(t, "cal/1-Feb-2026", slots[panel.SlotKey{Name: "day", Index: 0}])
	require.Equal(t, "cal/28-Feb-2026", slots[panel.SlotKey{Name: "day", Index: 27}])
	require.NotContains(t, slots, panel.SlotKey{Name: "day", Index: 28})
	require.Len(t, v.Occurrences("cal/14-Feb-2026"), 1)

	before, err := m.Store().Count(ctx)
	require.NoError(t, err)
	_, err = m.GenerateMonth(ctx, "cal")
	require.NoError(t, err)
	after, err := m.Store().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	day, err := v.Resolve(panel.Path{{Slot: "day", Index: 3}})
	require.NoError(t, err)
	_, err = m.RequestRemoval(ctx, day)
	require.ErrorIs(t, err, ErrLocked)

	_, err = m.Submit(ctx, "cal", panel.AttrDiff{"month": 3}, nil)
	require.NoError(t, err)
	_, err = m.GenerateMonth(ctx, "cal")
	require.NoError(t, err)
	// 1 Mar 2026 is a Sunday too, and March has 31 days
	require.Len(t, v.Occurrences("cal/31-Mar-2026"), 1)
	require.Empty(t, v.Occurrences("cal/1-Feb-2026"))
}

func TestShutdown(t *testing.T) {
	m, ctx := newTestManager(t)
	create(t, ctx, m, "task", "a")
	_, err := m.OpenView(ctx, "a", "")
	require.NoError(t, err)

	m.Shutdown()
	require.Empty(t, m.Views())
	_, err = m.Submit(ctx, "a", panel.AttrDiff{"checked": true}, nil)
	require.ErrorIs(t, err, ErrClosed)
	_, err = m.OpenView(ctx, "a", "")
	require.ErrorIs(t, err, ErrClosed)
}
