package paneltype

import (
	"time"

	"github.com/jask/panels/internal/panel"
)

// CalendarCells is the number of day positions in a calendar grid (6 weeks).
const CalendarCells = 42

// Builtin returns the registry of the types shipped with the application,
// extended by any extra types.
func Builtin(extra ...Type) (*Registry, error) {
	return NewRegistry(append(BuiltinTypes(), extra...)...)
}

// BuiltinTypes lists the shipped panel types.
func BuiltinTypes() []Type {
	return []Type{
		{
			Tag:           "vshelf",
			Description:   "list of panels, top to bottom",
			Slots:         []Slot{{Name: "elem", Cardinality: List}},
			UserCreatable: true,
		},
		{
			Tag:           "hshelf",
			Description:   "list of panels, left to right",
			Slots:         []Slot{{Name: "elem", Cardinality: List, Horizontal: true}},
			UserCreatable: true,
		},
		{
			Tag:           "task",
			Description:   "checkable task",
			Attributes:    []Attribute{{Name: "checked", Kind: Boolean, Default: false}},
			UserCreatable: true,
		},
		{
			Tag:           "number",
			Description:   "adjustable number",
			Attributes:    []Attribute{{Name: "value", Kind: Integer, Default: int64(0)}},
			UserCreatable: true,
		},
		{
			Tag:           "note",
			Description:   "free text",
			Attributes:    []Attribute{{Name: "text", Kind: Text, Default: ""}},
			UserCreatable: true,
		},
		{
			Tag:           "footnote",
			Description:   "a task with a footnote beneath it",
			Slots:         []Slot{{Name: "body", Cardinality: Single, Accepts: []string{"task"}}},
			UserCreatable: true,
		},
		{
			Tag:         "calendar",
			Description: "month grid with one panel per day",
			Attributes: []Attribute{
				{Name: "month", Kind: Integer},
				{Name: "year", Kind: Integer},
			},
			Slots: []Slot{
				{Name: "daily_type", Cardinality: Single, Accepts: []string{TypeTag}},
				{Name: "day", Cardinality: Single, Positions: CalendarCells, NoDrag: true, NoDrop: true},
			},
			UserCreatable: true,
			DefaultsFunc: func() panel.AttrDiff {
				now := time.Now()
				return panel.AttrDiff{"month": int64(now.Month()), "year": int64(now.Year())}
			},
		},
	}
}
