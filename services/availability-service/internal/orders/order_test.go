package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrder = `{
	"id": 5551234,
	"line_items": [
		{
			"id": 101,
			"title": "Haircut",
			"properties": [
				{"name": "_customerId", "value": 7},
				{"name": "_from", "value": "2026-02-02T09:00:00Z"},
				{"name": "_to", "value": "2026-02-02T10:00:00Z"}
			]
		},
		{
			"id": 102,
			"title": "Shampoo",
			"properties": [{"name": "gift", "value": "yes"}]
		},
		{
			"id": "103",
			"properties": [
				{"name": "_customerId", "value": "c-9"},
				{"name": "_from", "value": "2026-02-03T14:00:00+01:00"},
				{"name": "_to", "value": "2026-02-03T14:30:00+01:00"}
			]
		}
	]
}`

func TestParseBookedRanges(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))

	ranges, err := ParseBookedRanges(o)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.Equal(t, "5551234", ranges[0].OrderID)
	assert.Equal(t, "101", ranges[0].LineItemID)
	assert.Equal(t, "7", ranges[0].CustomerID)
	assert.True(t, ranges[0].Start.Equal(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)))
	assert.True(t, ranges[0].End.Equal(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, "103", ranges[1].LineItemID)
	assert.Equal(t, "c-9", ranges[1].CustomerID)
	assert.True(t, ranges[1].Start.Equal(time.Date(2026, 2, 3, 13, 0, 0, 0, time.UTC)))
}

func TestParseBookedRanges_CancelledOrderBooksNothing(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))
	cancelledAt := time.Date(2026, 10, 10, 10, 0, 0, 0, time.UTC)
	o.CancelledAt = &cancelledAt

	ranges, err := ParseBookedRanges(o)
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestParseBookedRanges_Invalid(t *testing.T) {
	item := func(from, to string) Order {
		return Order{ID: "1", LineItems: []LineItem{{ID: "1", Properties: []Property{
			{Name: PropertyCustomerID, Value: "c1"},
			{Name: PropertyFrom, Value: ID(from)},
			{Name: PropertyTo, Value: ID(to)},
		}}}}
	}

	cases := map[string]Order{
		"missing order id": {LineItems: nil},
		"bad from":         item("tomorrow", "2026-02-02T10:00:00Z"),
		"missing to":       item("2026-02-02T09:00:00Z", ""),
		"inverted":         item("2026-02-02T10:00:00Z", "2026-02-02T09:00:00Z"),
	}
	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBookedRanges(o)
			require.ErrorIs(t, err, availability.ErrValidation)
		})
	}
}

func TestParseBookedRanges_NoBookings(t *testing.T) {
	ranges, err := ParseBookedRanges(Order{ID: "1", LineItems: []LineItem{{ID: "1"}}})
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestID_Unmarshal(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12345678901234, "b": "x", "c": null}`), &v))
	assert.Equal(t, ID("12345678901234"), v.A)
	assert.Equal(t, ID("x"), v.B)
	assert.Equal(t, ID(""), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
