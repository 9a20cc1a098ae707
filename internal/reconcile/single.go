package reconcile

import (
	"fmt"

	"github.com/jask/panels/internal/panel"
)

// Single reconciles one single-slot position. cur/ok is what the position
// holds now; value is the diff entry for it. The current instance survives
// when it already shows value. created reports a call to mk.
func Single[T Keyed](cur T, ok bool, value string, mk func(id string) (T, error)) (next T, present, created bool, err error) {
	if value == panel.Tombstone {
		var zero T
		return zero, false, false, nil
	}
	if ok && cur.PanelID() == value {
		return cur, true, false, nil
	}
	it, err := mk(value)
	if err != nil {
		var zero T
		return zero, false, false, fmt.Errorf("materialize %q: %w", value, err)
	}
	return it, true, true, nil
}
