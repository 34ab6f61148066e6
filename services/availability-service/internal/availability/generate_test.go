package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// farPast keeps product windows wide open so that only the interval length matters.
var farPast = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func treatment(duration, breakTime int) Product {
	return Product{
		ProductID:     "treatment",
		Price:         100,
		Duration:      duration,
		BreakTime:     breakTime,
		NoticePeriod:  Period{Value: 1, Unit: Hours},
		BookingPeriod: Period{Value: 3, Unit: Months},
	}
}

func oneDay(intervals ...Interval) []DayIntervals {
	return []DayIntervals{{Date: testDay, Intervals: intervals}}
}

func TestGenerateSlots_FitBoundary(t *testing.T) {
	p := treatment(60, 15)

	fits := GenerateSlots(oneDay(iv(9, 0, 10, 15)), []Product{p}, farPast, farPast)
	require.Len(t, fits, 1)
	require.Len(t, fits[0].Slots, 1)
	require.Len(t, fits[0].Slots[0].Products, 1)
	c := fits[0].Slots[0].Products[0]
	assert.Equal(t, at(9, 0), c.From)
	assert.Equal(t, at(10, 0), c.To)
	assert.Equal(t, "2026-01-26", fits[0].Date)

	assert.Empty(t, GenerateSlots(oneDay(iv(9, 0, 10, 14)), []Product{p}, farPast, farPast))
	assert.Empty(t, GenerateSlots(oneDay(iv(9, 0, 10, 0)), []Product{p}, farPast, farPast))
}

func TestGenerateSlots_ListsEveryFittingProduct(t *testing.T) {
	short := treatment(30, 0)
	short.ProductID = "short"
	long := treatment(150, 0)
	long.ProductID = "long"

	days := GenerateSlots(oneDay(iv(9, 0, 10, 0), iv(13, 0, 16, 0)), []Product{short, long}, farPast, farPast)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 2)

	morning := days[0].Slots[0]
	require.Len(t, morning.Products, 1)
	assert.Equal(t, "short", morning.Products[0].ProductID)

	afternoon := days[0].Slots[1]
	require.Len(t, afternoon.Products, 2)
	assert.Equal(t, at(13, 0), afternoon.From)
	assert.Equal(t, at(16, 0), afternoon.To)
}

func TestGenerateSlots_RespectsPerProductWindow(t *testing.T) {
	now := at(8, 0)
	soon := treatment(30, 0)
	soon.ProductID = "soon"
	late := treatment(30, 0)
	late.ProductID = "late"
	late.NoticePeriod = Period{Value: 3, Unit: Hours}

	days := GenerateSlots(oneDay(iv(9, 0, 12, 0)), []Product{soon, late}, now, now)
	require.Len(t, days, 1)
	products := days[0].Slots[0].Products
	require.Len(t, products, 2)
	assert.Equal(t, at(9, 0), products[0].From)
	assert.Equal(t, at(11, 0), products[1].From, "late product may not start before its notice cutoff")
}

func TestRemoveBookedSlots_SplitsAndRefits(t *testing.T) {
	p := treatment(60, 0)
	days := GenerateSlots(oneDay(iv(9, 0, 12, 0)), []Product{p}, farPast, farPast)

	out := RemoveBookedSlots(days, []Interval{iv(9, 0, 10, 0)})
	require.Len(t, out, 1)
	require.Len(t, out[0].Slots, 1)
	slot := out[0].Slots[0]
	assert.Equal(t, at(10, 0), slot.From)
	assert.Equal(t, at(12, 0), slot.To)
	require.Len(t, slot.Products, 1)
	assert.Equal(t, at(10, 0), slot.Products[0].From)
	assert.Equal(t, at(11, 0), slot.Products[0].To)

	assert.Equal(t, at(9, 0), days[0].Slots[0].From, "input must not be modified")
}

func TestRemoveBookedSlots_DropsFragmentsTooShort(t *testing.T) {
	p := treatment(60, 15)
	days := GenerateSlots(oneDay(iv(9, 0, 12, 0)), []Product{p}, farPast, farPast)

	// Leaves 09:00-10:00 (too short for 75 minutes) and 10:30-12:00.
	out := RemoveBookedSlots(days, []Interval{iv(10, 0, 10, 30)})
	require.Len(t, out, 1)
	require.Len(t, out[0].Slots, 1)
	assert.Equal(t, at(10, 30), out[0].Slots[0].From)
}

func TestRemoveBookedSlots_FullyCoveredDayDisappears(t *testing.T) {
	p := treatment(30, 0)
	days := GenerateSlots(oneDay(iv(9, 0, 10, 0), iv(11, 0, 12, 0)), []Product{p}, farPast, farPast)

	out := RemoveBookedSlots(days, []Interval{iv(9, 0, 10, 0)})
	out = RemoveBookedSlots(out, []Interval{iv(10, 30, 12, 30)})
	assert.Empty(t, out)
}

func TestRemoveBookedSlots_PassOrderDoesNotMatter(t *testing.T) {
	p := treatment(30, 10)
	days := GenerateSlots(oneDay(iv(8, 0, 18, 0)), []Product{p}, farPast, farPast)
	booked := []Interval{iv(9, 0, 10, 0), iv(14, 0, 14, 30)}
	blocked := []Interval{iv(12, 0, 13, 0), iv(9, 30, 11, 0)}

	a := RemoveBookedSlots(RemoveBookedSlots(days, booked), blocked)
	b := RemoveBookedSlots(RemoveBookedSlots(days, blocked), booked)
	assert.Equal(t, a, b)

	again := RemoveBookedSlots(a, append(booked, blocked...))
	assert.Equal(t, a, again)
}

func TestSpan(t *testing.T) {
	days := []AvailabilityDay{
		{Date: "2026-01-26", Slots: []Slot{{From: at(9, 0), To: at(10, 0)}, {From: at(13, 0), To: at(17, 0)}}},
		{Date: "2026-01-27", Slots: []Slot{{From: at(33, 0), To: at(35, 0)}}},
	}
	span, ok := Span(days)
	require.True(t, ok)
	assert.Equal(t, at(9, 0), span.From)
	assert.Equal(t, at(35, 0), span.To)

	_, ok = Span(nil)
	assert.False(t, ok)
}
