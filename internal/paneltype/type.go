package paneltype

import (
	"fmt"
	"slices"

	"github.com/jask/panels/internal/panel"
)

// Cardinality says whether a slot holds an ordered list or fixed single positions.
type Cardinality string

const (
	List   Cardinality = "list"
	Single Cardinality = "single"
)

// Attribute is one declared attribute column.
type Attribute struct {
	Name    string
	Kind    Kind
	Default any
}

// Slot is one declared slot of a panel type.
type Slot struct {
	Name        string
	Cardinality Cardinality
	// Positions is the number of independent single positions (indices
	// 0..Positions-1). Ignored for lists.
	Positions int
	// Accepts restricts the child types users may drop in. Empty accepts any.
	Accepts    []string
	Horizontal bool
	NoDrag     bool
	NoDrop     bool
}

// Allows reports whether a child of the given type may be dropped into the slot.
func (s Slot) Allows(childType string) bool {
	if s.NoDrop {
		return false
	}
	return len(s.Accepts) == 0 || slices.Contains(s.Accepts, childType)
}

// Contains reports whether index is addressable in this slot.
func (s Slot) Contains(index int) bool {
	if index < 0 {
		return false
	}
	if s.Cardinality == List {
		return true
	}
	return index < s.positions()
}

func (s Slot) positions() int {
	if s.Positions <= 0 {
		return 1
	}
	return s.Positions
}

// Type is the capability record of one panel type.
type Type struct {
	Tag           string
	Description   string
	Attributes    []Attribute
	Slots         []Slot
	UserCreatable bool
	// DefaultsFunc, when set, supplies default values computed at creation
	// time. It overrides Attribute.Default for the keys it returns.
	DefaultsFunc func() panel.AttrDiff
}

// DeclaresAttributes reports whether the type owns an attribute table.
func (t *Type) DeclaresAttributes() bool {
	return len(t.Attributes) > 0
}

// Attribute looks up a declared attribute.
func (t *Type) Attribute(name string) (Attribute, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Slot looks up a declared slot.
func (t *Type) Slot(name string) (Slot, bool) {
	for _, s := range t.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// AttributeNames returns the declared attribute names in declaration order.
func (t *Type) AttributeNames() []string {
	out := make([]string, len(t.Attributes))
	for i, a := range t.Attributes {
		out[i] = a.Name
	}
	return out
}

// Defaults returns the normalized default attribute values.
func (t *Type) Defaults() (panel.AttrDiff, error) {
	raw := panel.AttrDiff{}
	for _, a := range t.Attributes {
		if a.Default != nil {
			raw[a.Name] = a.Default
		}
	}
	if t.DefaultsFunc != nil {
		for k, v := range t.DefaultsFunc() {
			raw[k] = v
		}
	}
	return t.NormalizeAttrs(raw)
}

// NormalizeAttrs checks every key is declared and coerces values to their kinds.
func (t *Type) NormalizeAttrs(diff panel.AttrDiff) (panel.AttrDiff, error) {
	if len(diff) == 0 {
		return diff, nil
	}
	out := make(panel.AttrDiff, len(diff))
	for name, v := range diff {
		a, ok := t.Attribute(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", panel.ErrUnknownAttribute, t.Tag, name)
		}
		nv, err := a.Kind.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Tag, name, err)
		}
		out[name] = nv
	}
	return out, nil
}

// CheckSlotKey fails with ErrNoSuchSlot when the type does not declare key.
func (t *Type) CheckSlotKey(key panel.SlotKey) (Slot, error) {
	s, ok := t.Slot(key.Name)
	if !ok {
		return Slot{}, fmt.Errorf("%w: %s has no slot %q", panel.ErrNoSuchSlot, t.Tag, key.Name)
	}
	if !s.Contains(key.Index) {
		return Slot{}, fmt.Errorf("%w: %s slot %s out of range", panel.ErrNoSuchSlot, t.Tag, key)
	}
	return s, nil
}
