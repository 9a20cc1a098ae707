// Package reconcile turns a sparse slot diff into the new child sequence of a
// live container, keeping the existing instance of every child that survives.
package reconcile

import (
	"fmt"

	"github.com/jask/panels/internal/panel"
)

// Keyed is anything that knows which panel it shows.
type Keyed interface {
	PanelID() string
}

// ListResult is the outcome of reconciling a list container.
type ListResult[T Keyed] struct {
	// Items is the new sequence. Items[:Pivot] are the untouched prefix.
	Items []T
	// Created holds the instances made by the factory, in sequence order.
	Created []T
	// Reused holds the detached instances that went back into the sequence.
	Reused []T
	// Discarded holds the detached instances that did not.
	Discarded []T
	Pivot     int
}

// List applies diff (index -> child id, or panel.Tombstone) to seq.
//
// The resulting id sequence is computed and checked first: a negative index,
// or an occupied index after an empty one, fails with panel.ErrIndexGap and
// nothing is built. Tombstones at or past the end are no-ops.
//
// Everything before the first index touched by diff is kept as is. From there
// on, an index named by the diff takes a detached instance showing the same
// panel if one is left, otherwise a new one from mk. An index the diff does not
// name keeps the instance that held it, unless that instance already moved
// elsewhere, in which case mk supplies a fresh one.
func List[T Keyed](seq []T, diff map[int]string, mk func(id string) (T, error)) (ListResult[T], error) {
	want, err := outcome(seq, diff)
	if err != nil {
		return ListResult[T]{}, err
	}

	pivot := len(seq)
	for i := range diff {
		if i < pivot {
			pivot = i
		}
	}

	var res ListResult[T]
	res.Pivot = pivot
	res.Items = make([]T, 0, len(want))
	res.Items = append(res.Items, seq[:pivot]...)

	// detached instances by panel id, in their original order
	used := make([]bool, len(seq))
	byID := make(map[string][]int)
	for i := pivot; i < len(seq); i++ {
		id := seq[i].PanelID()
		byID[id] = append(byID[id], i)
	}
	take := func(i int) T {
		used[i] = true
		res.Reused = append(res.Reused, seq[i])
		return seq[i]
	}
	fresh := func(id string) (T, error) {
		it, err := mk(id)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("materialize %q: %w", id, err)
		}
		res.Created = append(res.Created, it)
		return it, nil
	}

	for i := pivot; i < len(want); i++ {
		id := want[i]
		if _, named := diff[i]; !named && !used[i] {
			res.Items = append(res.Items, take(i))
			continue
		}
		reused := false
		for _, j := range byID[id] {
			if used[j] {
				continue
			}
			if _, named := diff[j]; !named && j > i {
				// still owed to its own index
				continue
			}
			res.Items = append(res.Items, take(j))
			reused = true
			break
		}
		if reused {
			continue
		}
		it, err := fresh(id)
		if err != nil {
			return ListResult[T]{}, err
		}
		res.Items = append(res.Items, it)
	}

	for i := pivot; i < len(seq); i++ {
		if !used[i] {
			res.Discarded = append(res.Discarded, seq[i])
		}
	}
	return res, nil
}

// outcome returns the child ids the list holds once diff is applied.
func outcome[T Keyed](seq []T, diff map[int]string) ([]string, error) {
	end := len(seq)
	for i := range diff {
		if i < 0 {
			return nil, fmt.Errorf("%w: negative index %d", panel.ErrIndexGap, i)
		}
		if i+1 > end {
			end = i + 1
		}
	}
	out := make([]string, 0, end)
	holes := []int(nil)
	for i := 0; i < end; i++ {
		id, named := diff[i]
		if !named && i < len(seq) {
			id = seq[i].PanelID()
		}
		if id == panel.Tombstone {
			holes = append(holes, i)
			continue
		}
		if len(holes) > 0 {
			return nil, fmt.Errorf("%w: index %d is set but %d is empty", panel.ErrIndexGap, i, holes[0])
		}
		out = append(out, id)
	}
	return out, nil
}

// Shift returns the diff that removes index at from ids:
// every later element moves down by one and the last index is tombstoned.
func Shift(ids []string, at int) map[int]string {
	if at < 0 || at >= len(ids) {
		return nil
	}
	d := make(map[int]string, len(ids)-at)
	for i := at; i < len(ids)-1; i++ {
		d[i] = ids[i+1]
	}
	d[len(ids)-1] = panel.Tombstone
	return d
}

// Insert returns the diff that puts id at index at, pushing the rest down.
// at is clamped to [0, len(ids)].
func Insert(ids []string, at int, id string) map[int]string {
	at = max(0, min(at, len(ids)))
	d := make(map[int]string, len(ids)-at+1)
	d[at] = id
	for i := at; i < len(ids); i++ {
		d[i+1] = ids[i]
	}
	return d
}

// Move returns the diff that relocates the element at from to index to.
func Move(ids []string, from, to int) map[int]string {
	if from < 0 || from >= len(ids) {
		return nil
	}
	to = max(0, min(to, len(ids)-1))
	if from == to {
		return nil
	}
	next := make([]string, 0, len(ids))
	next = append(next, ids[:from]...)
	next = append(next, ids[from+1:]...)
	next = append(next[:to], append([]string{ids[from]}, next[to:]...)...)

	d := make(map[int]string)
	for i := range next {
		if next[i] != ids[i] {
			d[i] = next[i]
		}
	}
	return d
}
