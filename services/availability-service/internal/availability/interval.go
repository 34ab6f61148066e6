// Package availability computes bookable time slots from a customer's weekly schedule,
// the requested products and the ranges already taken by orders or blocked by the customer.
package availability

import (
	"sort"
	"time"
)

// Interval is a half-open time range [From, To).
type Interval struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func NewInterval(from, to time.Time) (Interval, error) {
	if !from.Before(to) {
		return Interval{}, &ValidationError{Field: "to", Message: "must be after from"}
	}
	return Interval{From: from, To: to}, nil
}

// Empty reports whether the interval covers no time at all.
func (iv Interval) Empty() bool {
	return !iv.From.Before(iv.To)
}

func (iv Interval) Duration() time.Duration {
	if iv.Empty() {
		return 0
	}
	return iv.To.Sub(iv.From)
}

// Intersects reports whether a and b share at least one instant.
// Touching endpoints do not intersect: [09:00,10:00) and [10:00,11:00) are disjoint.
func Intersects(a, b Interval) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.From.Before(b.To) && b.From.Before(a.To)
}

// Intersection returns the overlap of a and b, if any.
func Intersection(a, b Interval) (Interval, bool) {
	if !Intersects(a, b) {
		return Interval{}, false
	}
	return Interval{From: maxTime(a.From, b.From), To: minTime(a.To, b.To)}, true
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Interval) bool {
	if outer.Empty() || inner.Empty() {
		return false
	}
	return !inner.From.Before(outer.From) && !inner.To.After(outer.To)
}

// Subtract removes cut from base and returns the surviving fragments in chronological order.
// The result has zero (cut covers base), one (cut overlaps an end or misses base entirely)
// or two (cut splits base) elements.
func Subtract(base, cut Interval) []Interval {
	if base.Empty() {
		return nil
	}
	if !Intersects(base, cut) {
		return []Interval{base}
	}
	out := make([]Interval, 0, 2)
	if base.From.Before(cut.From) {
		out = append(out, Interval{From: base.From, To: cut.From})
	}
	if cut.To.Before(base.To) {
		out = append(out, Interval{From: cut.To, To: base.To})
	}
	return out
}

// SubtractMany applies every cut to every surviving fragment of base.
// Fragments stay sorted, so the result does not depend on the order of cuts.
func SubtractMany(base Interval, cuts []Interval) []Interval {
	if base.Empty() {
		return nil
	}
	fragments := []Interval{base}
	for _, cut := range cuts {
		if len(fragments) == 0 {
			break
		}
		next := make([]Interval, 0, len(fragments)+1)
		for _, f := range fragments {
			next = append(next, Subtract(f, cut)...)
		}
		fragments = next
	}
	return fragments
}

// Normalize drops empty intervals, sorts the rest by start and merges
// overlapping or touching neighbours. The input slice is not modified.
func Normalize(in []Interval) []Interval {
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].From.Equal(sorted[j].From) {
			return sorted[i].To.Before(sorted[j].To)
		}
		return sorted[i].From.Before(sorted[j].From)
	})

	merged := make([]Interval, 0, len(sorted))
	for _, cur := range sorted {
		if len(merged) == 0 {
			merged = append(merged, cur)
			continue
		}
		last := &merged[len(merged)-1]
		if cur.From.After(last.To) {
			merged = append(merged, cur)
			continue
		}
		if cur.To.After(last.To) {
			last.To = cur.To
		}
	}
	return merged
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
