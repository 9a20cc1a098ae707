package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
)

// DayID is the id of the panel shown for date on calendar.
func DayID(calendar string, date time.Time) string {
	return calendar + "/" + date.Format("2-Jan-2006")
}

// GenerateMonth fills the day grid of a calendar with one panel per day of
// its month and year attributes. Days are panels of the calendar's daily
// type, created on first use and reused afterwards. The grid starts on
// Sunday; unused cells are cleared.
func (m *Manager) GenerateMonth(ctx context.Context, calendar string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Report{}, ErrClosed
	}

	attrs, err := m.store.Attributes(ctx, calendar)
	if err != nil {
		return Report{}, err
	}
	month, _ := attrs["month"].(int64)
	year, _ := attrs["year"].(int64)
	if month < 1 || month > 12 {
		return Report{}, fmt.Errorf("%w: calendar %q month %d", panel.ErrAttributeKind, calendar, month)
	}
	slots, err := m.store.Slots(ctx, calendar)
	if err != nil {
		return Report{}, err
	}
	daily, ok := slots[panel.SlotKey{Name: "daily_type", Index: 0}]
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrNoDailyType, calendar)
	}

	first := time.Date(int(year), time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	offset := int(first.Weekday())
	days := first.AddDate(0, 1, -1).Day()

	diff := make(panel.SlotDiff, paneltype.CalendarCells)
	for cell := 0; cell < paneltype.CalendarCells; cell++ {
		diff[panel.SlotKey{Name: "day", Index: cell}] = panel.Tombstone
	}
	created := 0
	for d := 1; d <= days; d++ {
		id := DayID(calendar, first.AddDate(0, 0, d-1))
		ok, err := m.store.Exists(ctx, id)
		if err != nil {
			return Report{}, err
		}
		if !ok {
			if err := m.store.Create(ctx, id, daily); err != nil {
				return Report{}, fmt.Errorf("create day %q: %w", id, err)
			}
			created++
		}
		diff[panel.SlotKey{Name: "day", Index: offset + d - 1}] = id
	}
	m.log.Info("month generated",
		zap.String("calendar", calendar),
		zap.Int64("year", year),
		zap.Int64("month", month),
		zap.Int("created", created))
	return m.submit(ctx, calendar, nil, diff)
}
