package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jask/panels/internal/paneltype"
)

// Match ranks, best first.
const (
	rankExact = iota
	rankTagPrefix
	rankTagContains
	rankDescription
)

// TypePicker narrows the types a slot accepts as the query grows. The query
// itself is edited by the app's text input.
type TypePicker struct {
	types   []*paneltype.Type
	suggest func(string) string

	query   string
	matches []*paneltype.Type
	cursor  int
}

// NewTypePicker offers types in the given order. suggest names the closest
// known tag for a query nothing matches; it may be nil.
func NewTypePicker(types []*paneltype.Type, suggest func(string) string) *TypePicker {
	p := &TypePicker{types: types, suggest: suggest}
	p.SetQuery("")
	return p
}

func (p *TypePicker) Query() string { return p.query }

func (p *TypePicker) Cursor() int { return p.cursor }

func (p *TypePicker) Matches() []*paneltype.Type {
	return append([]*paneltype.Type(nil), p.matches...)
}

// SetQuery refilters and keeps the cursor on the same type when it still
// matches.
func (p *TypePicker) SetQuery(q string) {
	var current string
	if len(p.matches) > 0 {
		current = p.matches[p.cursor].Tag
	}
	p.query = q

	type ranked struct {
		t    *paneltype.Type
		rank int
		pos  int
	}
	var rs []ranked
	for pos, t := range p.types {
		if r, ok := rankType(t, q); ok {
			rs = append(rs, ranked{t, r, pos})
		}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].rank != rs[j].rank {
			return rs[i].rank < rs[j].rank
		}
		return rs[i].pos < rs[j].pos
	})

	p.matches = p.matches[:0]
	p.cursor = 0
	for i, r := range rs {
		p.matches = append(p.matches, r.t)
		if r.t.Tag == current {
			p.cursor = i
		}
	}
}

// Move shifts the cursor by delta, clamped to the matches.
func (p *TypePicker) Move(delta int) {
	p.cursor = max(0, min(p.cursor+delta, len(p.matches)-1))
}

// Choice is the highlighted tag. With nothing matching it is the raw query,
// so creation fails with the registry's own explanation.
func (p *TypePicker) Choice() string {
	if len(p.matches) > 0 {
		return p.matches[p.cursor].Tag
	}
	return strings.TrimSpace(p.query)
}

// Hint explains an empty match list.
func (p *TypePicker) Hint() string {
	q := strings.TrimSpace(p.query)
	if len(p.matches) > 0 || q == "" {
		return ""
	}
	if p.suggest != nil {
		if s := p.suggest(q); s != "" {
			return fmt.Sprintf("no type here matches; did you mean %q?", s)
		}
	}
	return "no type here matches"
}

func rankType(t *paneltype.Type, query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	tag := strings.ToLower(t.Tag)
	switch {
	case q == "":
		return rankExact, true
	case tag == q:
		return rankExact, true
	case strings.HasPrefix(tag, q):
		return rankTagPrefix, true
	case strings.Contains(tag, q):
		return rankTagContains, true
	}
	for _, w := range strings.FieldsFunc(strings.ToLower(t.Description), func(r rune) bool {
		return r == ' ' || r == ','
	}) {
		if strings.HasPrefix(w, q) {
			return rankDescription, true
		}
	}
	return 0, false
}
