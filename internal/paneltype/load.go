package paneltype

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// typesFile is the top-level TOML structure of a panel type file.
type typesFile struct {
	Type []typeDef `toml:"type"`
}

type typeDef struct {
	Tag         string         `toml:"tag"`
	Description string         `toml:"description"`
	Creatable   *bool          `toml:"user_creatable"`
	Attributes  []attributeDef `toml:"attribute"`
	Slots       []slotDef      `toml:"slot"`
}

type attributeDef struct {
	Name    string `toml:"name"`
	Kind    string `toml:"kind"`
	Default any    `toml:"default"`
}

type slotDef struct {
	Name       string   `toml:"name"`
	List       bool     `toml:"list"`
	Positions  int      `toml:"positions"`
	Accepts    []string `toml:"accepts"`
	Horizontal bool     `toml:"horizontal"`
	NoDrag     bool     `toml:"no_drag"`
	NoDrop     bool     `toml:"no_drop"`
}

// LoadFile reads extra panel types from a TOML file of [[type]] blocks:
//
//	[[type]]
//	tag = "habit"
//	[[type.attribute]]
//	name = "streak"
//	kind = "integer"
//	default = 0
func LoadFile(path string) ([]Type, error) {
	var f typesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return convert(f)
}

// Parse is LoadFile over an in-memory document.
func Parse(doc string) ([]Type, error) {
	var f typesFile
	if _, err := toml.Decode(doc, &f); err != nil {
		return nil, fmt.Errorf("decode types: %w", err)
	}
	return convert(f)
}

func convert(f typesFile) ([]Type, error) {
	out := make([]Type, 0, len(f.Type))
	for _, d := range f.Type {
		t := Type{Tag: d.Tag, Description: d.Description, UserCreatable: true}
		if d.Creatable != nil {
			t.UserCreatable = *d.Creatable
		}
		for _, a := range d.Attributes {
			kind, err := ParseKind(a.Kind)
			if err != nil {
				return nil, fmt.Errorf("type %s attribute %s: %w", d.Tag, a.Name, err)
			}
			def, err := kind.Normalize(a.Default)
			if err != nil {
				return nil, fmt.Errorf("type %s attribute %s: %w", d.Tag, a.Name, err)
			}
			t.Attributes = append(t.Attributes, Attribute{Name: a.Name, Kind: kind, Default: def})
		}
		for _, s := range d.Slots {
			card := Single
			if s.List {
				card = List
			}
			t.Slots = append(t.Slots, Slot{
				Name:        s.Name,
				Cardinality: card,
				Positions:   s.Positions,
				Accepts:     s.Accepts,
				Horizontal:  s.Horizontal,
				NoDrag:      s.NoDrag,
				NoDrop:      s.NoDrop,
			})
		}
		out = append(out, t)
	}
	return out, nil
}
