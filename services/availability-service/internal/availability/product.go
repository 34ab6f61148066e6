package availability

import "time"

// Source tells whether a resolved product came straight from the schedule or
// stands in for a parent product through a selected option.
type Source int

const (
	SourceBase Source = iota
	SourceOption
)

func (s Source) String() string {
	if s == SourceOption {
		return "option"
	}
	return "base"
}

// Product is a bookable service. Duration and BreakTime are minutes.
type Product struct {
	ProductID     string          `json:"productId"`
	VariantID     string          `json:"variantId,omitempty"`
	ParentID      string          `json:"parentId,omitempty"`
	Price         float64         `json:"price"`
	Duration      int             `json:"duration"`
	BreakTime     int             `json:"breakTime"`
	NoticePeriod  Period          `json:"noticePeriod"`
	BookingPeriod Period          `json:"bookingPeriod"`
	Options       []ProductOption `json:"options,omitempty"`
	Source        Source          `json:"-"`
}

// ProductOption is a cloned commerce listing attached to a product. Each of its
// variants can be booked in place of the parent.
type ProductOption struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title,omitempty"`
	Variants  []OptionVariant `json:"variants"`
}

type OptionVariant struct {
	VariantID string  `json:"variantId"`
	Title     string  `json:"title,omitempty"`
	Price     float64 `json:"price"`
	Duration  int     `json:"duration"`
}

// Window returns the instants between which the product may start:
// [max(now+notice, fromDate), now+booking].
func (p Product) Window(now, fromDate time.Time) Interval {
	earliest := p.NoticePeriod.AddTo(now)
	if fromDate.After(earliest) {
		earliest = fromDate
	}
	return Interval{From: earliest, To: p.BookingPeriod.AddTo(now)}
}

// Occupies is the time a single booking of the product blocks, break included.
func (p Product) Occupies() time.Duration {
	return time.Duration(p.Duration+p.BreakTime) * time.Minute
}

func (p Product) Validate() error {
	if p.ProductID == "" {
		return invalid("productId", "is required")
	}
	if p.Duration <= 0 {
		return invalid("duration", "must be greater than zero")
	}
	if p.BreakTime < 0 {
		return invalid("breakTime", "must not be negative")
	}
	if err := p.NoticePeriod.Validate("noticePeriod", NoticeUnits); err != nil {
		return err
	}
	if err := p.BookingPeriod.Validate("bookingPeriod", BookingUnits); err != nil {
		return err
	}
	for i, opt := range p.Options {
		for j, v := range opt.Variants {
			if v.VariantID == "" {
				return invalid("options", "variant %d of option %d has no variantId", j, i)
			}
			if v.Duration <= 0 {
				return invalid("options", "variant %s duration must be greater than zero", v.VariantID)
			}
		}
	}
	return nil
}
