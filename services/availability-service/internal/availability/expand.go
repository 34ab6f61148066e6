package availability

import "time"

// DayIntervals are the opening hours of one calendar date, anchored in the schedule's location.
type DayIntervals struct {
	Date      time.Time
	Intervals []Interval
}

// Horizon returns the union of the products' booking windows. ok is false when
// no product has a non-empty window.
func Horizon(products []Product, now, fromDate time.Time) (Interval, bool) {
	var h Interval
	found := false
	for _, p := range products {
		w := p.Window(now, fromDate)
		if w.Empty() {
			continue
		}
		if !found {
			h, found = w, true
			continue
		}
		h.From = minTime(h.From, w.From)
		h.To = maxTime(h.To, w.To)
	}
	return h, found
}

// Expand materializes the weekly template over horizon. Dates are walked in loc;
// clock intervals of a weekday are sorted and merged before anchoring, and the
// result is clipped to the horizon. Dates without opening hours are omitted.
func Expand(slots []WeeklySlot, horizon Interval, loc *time.Location) []DayIntervals {
	if horizon.Empty() {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[time.Weekday][]ClockInterval, len(slots))
	for _, s := range slots {
		wd, ok := s.Day.Weekday()
		if !ok {
			continue
		}
		byDay[wd] = append(byDay[wd], s.Intervals...)
	}

	start := horizon.From.In(loc)
	end := horizon.To.In(loc)
	var out []DayIntervals
	for day := midnight(start, loc); day.Before(end); day = midnight(day.AddDate(0, 0, 1), loc) {
		clock, ok := byDay[day.Weekday()]
		if !ok {
			continue
		}
		anchored := make([]Interval, 0, len(clock))
		for _, ci := range clock {
			anchored = append(anchored, Interval{From: ci.From.On(day, loc), To: ci.To.On(day, loc)})
		}

		var clipped []Interval
		for _, iv := range Normalize(anchored) {
			if c, ok := Intersection(iv, horizon); ok {
				clipped = append(clipped, Interval{From: c.From.In(loc), To: c.To.In(loc)})
			}
		}
		if len(clipped) > 0 {
			out = append(out, DayIntervals{Date: day, Intervals: clipped})
		}
	}
	return out
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
