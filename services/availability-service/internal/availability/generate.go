package availability

import "time"

const dateLayout = "2006-01-02"

// ProductSlotCandidate is a product that can start inside a slot. From is the earliest
// start and To is From plus the product's duration.
type ProductSlotCandidate struct {
	ProductID string    `json:"productId"`
	VariantID string    `json:"variantId,omitempty"`
	ParentID  string    `json:"parentId,omitempty"`
	Price     float64   `json:"price"`
	Duration  int       `json:"duration"`
	BreakTime int       `json:"breakTime"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`

	// NotAfter bounds the booking including its break time: the product's booking
	// horizon or the end of the slot, whichever is earlier.
	NotAfter time.Time `json:"-"`
}

func (c ProductSlotCandidate) occupies() time.Duration {
	return time.Duration(c.Duration+c.BreakTime) * time.Minute
}

type Slot struct {
	From     time.Time              `json:"from"`
	To       time.Time              `json:"to"`
	Products []ProductSlotCandidate `json:"products"`
}

func (s Slot) Interval() Interval {
	return Interval{From: s.From, To: s.To}
}

type AvailabilityDay struct {
	Date     string    `json:"date"`
	Customer Customer  `json:"customer"`
	Shipping *Shipping `json:"shipping,omitempty"`
	Slots    []Slot    `json:"slots"`
}

// GenerateSlots turns expanded opening hours into offerable slots. A product is listed
// on a slot when it fits between max(slot start, its earliest start) and
// min(slot end, its latest start) with duration plus break time. Slots without any
// product and days without any slot are left out.
func GenerateSlots(days []DayIntervals, products []Product, now, fromDate time.Time) []AvailabilityDay {
	windows := make([]Interval, len(products))
	for i, p := range products {
		windows[i] = p.Window(now, fromDate)
	}

	var out []AvailabilityDay
	for _, day := range days {
		var slots []Slot
		for _, iv := range day.Intervals {
			var candidates []ProductSlotCandidate
			for i, p := range products {
				window, ok := Intersection(iv, windows[i])
				if !ok {
					continue
				}
				if c, fits := fit(p, window); fits {
					candidates = append(candidates, c)
				}
			}
			if len(candidates) > 0 {
				slots = append(slots, Slot{From: iv.From, To: iv.To, Products: candidates})
			}
		}
		if len(slots) > 0 {
			out = append(out, AvailabilityDay{Date: day.Date.Format(dateLayout), Slots: slots})
		}
	}
	return out
}

func fit(p Product, window Interval) (ProductSlotCandidate, bool) {
	if p.Duration <= 0 || window.From.Add(p.Occupies()).After(window.To) {
		return ProductSlotCandidate{}, false
	}
	return ProductSlotCandidate{
		ProductID: p.ProductID,
		VariantID: p.VariantID,
		ParentID:  p.ParentID,
		Price:     p.Price,
		Duration:  p.Duration,
		BreakTime: p.BreakTime,
		From:      window.From,
		To:        window.From.Add(time.Duration(p.Duration) * time.Minute),
		NotAfter:  window.To,
	}, true
}

// Span returns the earliest slot start and the latest slot end across days.
func Span(days []AvailabilityDay) (Interval, bool) {
	var span Interval
	found := false
	for _, d := range days {
		for _, s := range d.Slots {
			if !found {
				span, found = s.Interval(), true
				continue
			}
			span.From = minTime(span.From, s.From)
			span.To = maxTime(span.To, s.To)
		}
	}
	return span, found
}
