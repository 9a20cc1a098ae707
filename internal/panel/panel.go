// Package panel holds the value types shared by the store, the path resolver,
// the reconcilers and the live views.
package panel

import (
	"fmt"
	"sort"
	"strings"
)

// Tombstone as a SlotDiff value removes the edge at that key. Panel ids are
// never blank, so the empty string cannot collide with a real child.
const Tombstone = ""

// SlotKey addresses one position of a named slot on a parent panel.
type SlotKey struct {
	Name  string
	Index int
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s:%d", k.Name, k.Index)
}

// SlotDiff is a sparse set of slot changes for one panel: child id to place,
// or Tombstone to remove.
type SlotDiff map[SlotKey]string

// ForSlot returns the index -> value entries addressed to one slot name.
func (d SlotDiff) ForSlot(name string) map[int]string {
	out := make(map[int]string)
	for k, v := range d {
		if k.Name == name {
			out[k.Index] = v
		}
	}
	return out
}

// Names returns the distinct slot names in the diff, sorted.
func (d SlotDiff) Names() []string {
	seen := make(map[string]struct{})
	for k := range d {
		seen[k.Name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Keys returns the diff keys ordered by name, then index.
func (d SlotDiff) Keys() []SlotKey {
	out := make([]SlotKey, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// AttrDiff maps attribute names to new values.
type AttrDiff map[string]any

// Step is one hop of a path: the slot position followed from a parent.
type Step struct {
	Slot  string
	Index int
}

// Key returns the slot key this step follows.
func (s Step) Key() SlotKey {
	return SlotKey{Name: s.Slot, Index: s.Index}
}

// Path is the ordered sequence of steps from a view root to an occurrence.
// The empty path addresses the root itself.
type Path []Step

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = fmt.Sprintf("%s:%d", s.Slot, s.Index)
	}
	return strings.Join(parts, "/")
}

// Equal reports whether both paths take the same steps.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Extend returns a copy of p with one more step.
func (p Path) Extend(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Edge is one persisted slot reference.
type Edge struct {
	Parent string
	Key    SlotKey
	Child  string
}

// Snapshot is everything needed to materialize one panel.
type Snapshot struct {
	ID    string
	Type  string
	Attrs AttrDiff
	Slots map[SlotKey]string
}
