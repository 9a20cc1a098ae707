// Package paneltype is the closed registry of panel types. A registry is built
// once at startup and never changes afterwards.
package paneltype

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/jask/panels/internal/panel"
)

// TypeTag is the tag of the synthetic registry panels, one per registered type.
const TypeTag = "type"

var (
	tagPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	reserved   = map[string]bool{"panels": true, "slots": true, "schema_migrations": true}
)

// Registry maps type tags to their capability records.
type Registry struct {
	types map[string]*Type
	tags  []string
}

// NewRegistry validates and indexes the given types. The "type" type is
// always present.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: make(map[string]*Type, len(types)+1)}
	all := append([]Type{typeType()}, types...)
	for i := range all {
		t := all[i]
		if err := validate(&t); err != nil {
			return nil, err
		}
		if _, dup := r.types[t.Tag]; dup {
			if t.Tag == TypeTag {
				continue
			}
			return nil, fmt.Errorf("panel type %q registered twice", t.Tag)
		}
		r.types[t.Tag] = &t
		r.tags = append(r.tags, t.Tag)
	}
	sort.Strings(r.tags)
	return r, nil
}

func validate(t *Type) error {
	if !tagPattern.MatchString(t.Tag) || reserved[t.Tag] {
		return fmt.Errorf("invalid panel type tag %q", t.Tag)
	}
	seen := map[string]bool{"panelid": true}
	for _, a := range t.Attributes {
		if !tagPattern.MatchString(a.Name) || seen[a.Name] {
			return fmt.Errorf("type %s: invalid attribute name %q", t.Tag, a.Name)
		}
		seen[a.Name] = true
		if _, err := ParseKind(string(a.Kind)); err != nil {
			return fmt.Errorf("type %s: %w", t.Tag, err)
		}
		if _, err := a.Kind.Normalize(a.Default); err != nil {
			return fmt.Errorf("type %s: default for %s: %w", t.Tag, a.Name, err)
		}
	}
	slots := map[string]bool{}
	for _, s := range t.Slots {
		if s.Name == "" || slots[s.Name] {
			return fmt.Errorf("type %s: invalid slot name %q", t.Tag, s.Name)
		}
		slots[s.Name] = true
		if s.Cardinality != List && s.Cardinality != Single {
			return fmt.Errorf("type %s: slot %s has cardinality %q", t.Tag, s.Name, s.Cardinality)
		}
	}
	return nil
}

func typeType() Type {
	return Type{Tag: TypeTag, Description: "registry entry for a panel type"}
}

// Lookup returns the type registered under tag.
func (r *Registry) Lookup(tag string) (*Type, bool) {
	t, ok := r.types[tag]
	return t, ok
}

// MustLookup is Lookup that wraps ErrUnknownType with a suggestion.
func (r *Registry) MustLookup(tag string) (*Type, error) {
	t, ok := r.types[tag]
	if !ok {
		if s := r.Suggest(tag); s != "" {
			return nil, fmt.Errorf("%w: %q (did you mean %q?)", panel.ErrUnknownType, tag, s)
		}
		return nil, fmt.Errorf("%w: %q", panel.ErrUnknownType, tag)
	}
	return t, nil
}

// Creatable returns the type if users may create panels of it.
func (r *Registry) Creatable(tag string) (*Type, error) {
	t, err := r.MustLookup(tag)
	if err != nil {
		return nil, err
	}
	if !t.UserCreatable {
		return nil, fmt.Errorf("%w: %q", panel.ErrNotUserCreatable, tag)
	}
	return t, nil
}

// Tags returns every registered tag, sorted.
func (r *Registry) Tags() []string {
	return append([]string(nil), r.tags...)
}

// CreatableTags returns the tags users may create, sorted.
func (r *Registry) CreatableTags() []string {
	var out []string
	for _, tag := range r.tags {
		if r.types[tag].UserCreatable {
			out = append(out, tag)
		}
	}
	return out
}

// Suggest returns the closest registered tag within edit distance 2, or "".
func (r *Registry) Suggest(tag string) string {
	best, bestDist := "", 3
	for _, t := range r.tags {
		if d := levenshtein.ComputeDistance(tag, t); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}
