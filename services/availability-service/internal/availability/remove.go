package availability

// RemoveBookedSlots cuts ranges out of every slot they intersect. Each surviving
// fragment becomes its own slot and keeps only the products that still fit in it;
// fragments left without products are dropped, and so are days left without slots.
// The input is not modified.
func RemoveBookedSlots(days []AvailabilityDay, ranges []Interval) []AvailabilityDay {
	out := make([]AvailabilityDay, 0, len(days))
	for _, day := range days {
		var slots []Slot
		for _, slot := range day.Slots {
			slots = append(slots, removeFromSlot(slot, ranges)...)
		}
		if len(slots) == 0 {
			continue
		}
		day.Slots = slots
		out = append(out, day)
	}
	return out
}

func removeFromSlot(slot Slot, ranges []Interval) []Slot {
	base := slot.Interval()
	var cuts []Interval
	for _, r := range ranges {
		if Intersects(base, r) {
			cuts = append(cuts, r)
		}
	}
	if len(cuts) == 0 {
		return []Slot{slot}
	}

	var out []Slot
	for _, frag := range SubtractMany(base, cuts) {
		var products []ProductSlotCandidate
		for _, c := range slot.Products {
			if refit, ok := refitCandidate(c, frag); ok {
				products = append(products, refit)
			}
		}
		if len(products) > 0 {
			out = append(out, Slot{From: frag.From, To: frag.To, Products: products})
		}
	}
	return out
}

func refitCandidate(c ProductSlotCandidate, frag Interval) (ProductSlotCandidate, bool) {
	window, ok := Intersection(frag, Interval{From: c.From, To: c.NotAfter})
	if !ok || window.From.Add(c.occupies()).After(window.To) {
		return ProductSlotCandidate{}, false
	}
	c.To = window.From.Add(c.To.Sub(c.From))
	c.From = window.From
	c.NotAfter = window.To
	return c, true
}

// FilterEmptyDays drops days that have no slots.
func FilterEmptyDays(days []AvailabilityDay) []AvailabilityDay {
	out := make([]AvailabilityDay, 0, len(days))
	for _, d := range days {
		if len(d.Slots) > 0 {
			out = append(out, d)
		}
	}
	return out
}
