package availability

import (
	"fmt"
	"strings"
	"time"
)

// ValidateSchedule checks a schedule before it is stored. It returns a copy in which
// weekdays without intervals are removed and day names are normalized.
func ValidateSchedule(s Schedule) (Schedule, error) {
	if strings.TrimSpace(s.Timezone) != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return Schedule{}, invalid("timezone", "unknown time zone %q", s.Timezone)
		}
	}

	seen := make(map[Day]int, len(s.Slots))
	slots := make([]WeeklySlot, 0, len(s.Slots))
	for i, slot := range s.Slots {
		day, err := ParseDay(string(slot.Day))
		if err != nil {
			return Schedule{}, invalid(fmt.Sprintf("slots[%d].day", i), "unknown day %q", slot.Day)
		}
		if first, dup := seen[day]; dup {
			return Schedule{}, invalid(fmt.Sprintf("slots[%d].day", i), "%s already defined at index %d", day, first)
		}
		seen[day] = i

		for j, ci := range slot.Intervals {
			if ci.From.Minutes() >= ci.To.Minutes() {
				return Schedule{}, invalid(fmt.Sprintf("slots[%d].intervals[%d]", i, j), "from %s must be before to %s", ci.From, ci.To)
			}
		}
		if len(slot.Intervals) == 0 {
			continue
		}
		slots = append(slots, WeeklySlot{Day: day, Intervals: append([]ClockInterval(nil), slot.Intervals...)})
	}

	products := make([]Product, 0, len(s.Products))
	for i, p := range s.Products {
		if err := p.Validate(); err != nil {
			return Schedule{}, fmt.Errorf("products[%d]: %w", i, err)
		}
		products = append(products, p)
	}

	out := s
	out.Slots = slots
	out.Products = products
	return out, nil
}
