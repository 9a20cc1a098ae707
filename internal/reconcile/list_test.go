package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/panels/internal/panel"
)

type item struct{ id string }

func (i *item) PanelID() string { return i.id }

func items(ids ...string) []*item {
	out := make([]*item, len(ids))
	for i, id := range ids {
		out[i] = &item{id: id}
	}
	return out
}

func ids(seq []*item) []string {
	out := make([]string, len(seq))
	for i, it := range seq {
		out[i] = it.id
	}
	return out
}

func factory(made *[]string) func(string) (*item, error) {
	return func(id string) (*item, error) {
		*made = append(*made, id)
		return &item{id: id}, nil
	}
}

func TestListReplaceKeepsNeighbours(t *testing.T) {
	seq := items("a", "b", "c")
	var made []string
	res, err := List(seq, map[int]string{1: "d"}, factory(&made))
	require.NoError(t, err)

	require.Equal(t, []string{"a", "d", "c"}, ids(res.Items))
	require.Same(t, seq[0], res.Items[0])
	require.Same(t, seq[2], res.Items[2])
	require.Equal(t, []string{"d"}, made)
	require.Equal(t, 1, res.Pivot)
	require.Equal(t, []*item{seq[1]}, res.Discarded)
	require.Equal(t, []*item{seq[2]}, res.Reused)
}

func TestListRemovalNeedsRenumbering(t *testing.T) {
	seq := items("a", "b", "c")
	var made []string
	_, err := List(seq, map[int]string{0: panel.Tombstone}, factory(&made))
	require.ErrorIs(t, err, panel.ErrIndexGap)
	require.Empty(t, made)

	res, err := List(seq, map[int]string{0: "b", 1: "c", 2: panel.Tombstone}, factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, ids(res.Items))
	require.Same(t, seq[1], res.Items[0])
	require.Same(t, seq[2], res.Items[1])
	require.Empty(t, made)
	require.Equal(t, []*item{seq[0]}, res.Discarded)
}

func TestListFromEmpty(t *testing.T) {
	var made []string
	res, err := List(nil, map[int]string{0: "x"}, factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, ids(res.Items))
	require.Equal(t, []string{"x"}, made)
	require.Len(t, res.Created, 1)
}

func TestListInsertReusesShiftedTail(t *testing.T) {
	seq := items("a", "b", "c")
	var made []string
	res, err := List(seq, Insert(ids(seq), 1, "d"), factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "d", "b", "c"}, ids(res.Items))
	require.Same(t, seq[1], res.Items[2])
	require.Same(t, seq[2], res.Items[3])
	require.Equal(t, []string{"d"}, made)
	require.Empty(t, res.Discarded)
}

func TestListMovePreservesIdentity(t *testing.T) {
	seq := items("a", "b", "c", "d")
	var made []string
	res, err := List(seq, Move(ids(seq), 0, 2), factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "a", "d"}, ids(res.Items))
	require.Same(t, seq[0], res.Items[2])
	require.Same(t, seq[3], res.Items[3])
	require.Empty(t, made)
	require.Empty(t, res.Discarded)
}

func TestListDuplicateIDs(t *testing.T) {
	// the same panel twice; each occurrence is its own instance
	seq := items("x", "y", "x")
	var made []string
	res, err := List(seq, Shift(ids(seq), 0), factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"y", "x"}, ids(res.Items))
	require.Same(t, seq[1], res.Items[0])
	require.Empty(t, made)
	require.Len(t, res.Discarded, 1)

	// copying an id into a position whose holder stays put makes a new instance
	res, err = List(seq, map[int]string{1: "x", 3: "y"}, factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"x", "x", "x", "y"}, ids(res.Items))
	require.Same(t, seq[2], res.Items[2])
	require.Same(t, seq[1], res.Items[3])
	require.Equal(t, []string{"x"}, made)
}

func TestListPastEnd(t *testing.T) {
	seq := items("a")
	var made []string

	_, err := List(seq, map[int]string{3: "z"}, factory(&made))
	require.ErrorIs(t, err, panel.ErrIndexGap)
	_, err = List(seq, map[int]string{-1: "z"}, factory(&made))
	require.ErrorIs(t, err, panel.ErrIndexGap)
	require.Empty(t, made)

	res, err := List(seq, map[int]string{1: "b", 2: "c"}, factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids(res.Items))

	res, err = List(seq, map[int]string{5: panel.Tombstone}, factory(&made))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(res.Items))
	require.Same(t, seq[0], res.Items[0])
}

func TestListFactoryError(t *testing.T) {
	boom := errors.New("boom")
	seq := items("a")
	_, err := List(seq, map[int]string{0: "b"}, func(string) (*item, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"a"}, ids(seq))
}

func TestDiffHelpers(t *testing.T) {
	require.Equal(t, map[int]string{1: "c", 2: panel.Tombstone}, Shift([]string{"a", "b", "c"}, 1))
	require.Nil(t, Shift([]string{"a"}, 3))
	require.Equal(t, map[int]string{2: "z"}, Insert([]string{"a", "b"}, 9, "z"))
	require.Equal(t, map[int]string{0: "b", 1: "a"}, Move([]string{"a", "b", "c"}, 1, 0))
	require.Nil(t, Move([]string{"a", "b"}, 1, 1))
}

func TestSingle(t *testing.T) {
	var made []string
	cur := &item{id: "t"}

	next, ok, created, err := Single(cur, true, "t", factory(&made))
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, created)
	require.Same(t, cur, next)

	next, ok, created, err = Single(cur, true, "u", factory(&made))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, created)
	require.Equal(t, "u", next.id)

	_, ok, _, err = Single(cur, true, panel.Tombstone, factory(&made))
	require.NoError(t, err)
	require.False(t, ok)

	next, ok, created, err = Single[*item](nil, false, "v", factory(&made))
	require.NoError(t, err)
	require.True(t, ok && created)
	require.Equal(t, "v", next.id)
}
