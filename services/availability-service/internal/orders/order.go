package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/storage"
)

// Line item properties written by the storefront when a bookable product is added to the cart.
const (
	PropertyFrom       = "_from"
	PropertyTo         = "_to"
	PropertyCustomerID = "_customerId"
)

// ID accepts both JSON numbers and strings; commerce platforms use either.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type Order struct {
	ID          ID         `json:"id"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	LineItems   []LineItem `json:"line_items"`
}

type LineItem struct {
	ID         ID         `json:"id"`
	Title      string     `json:"title,omitempty"`
	Properties []Property `json:"properties"`
}

type Property struct {
	Name  string `json:"name"`
	Value ID     `json:"value"`
}

func (li LineItem) property(name string) (string, bool) {
	for _, p := range li.Properties {
		if p.Name == name {
			return strings.TrimSpace(string(p.Value)), true
		}
	}
	return "", false
}

// ParseBookedRanges extracts the booked time of every line item that carries a customer id.
// Items without one are not bookings and are skipped. A cancelled order books nothing.
func ParseBookedRanges(o Order) ([]storage.BookedRange, error) {
	if o.ID == "" {
		return nil, &availability.ValidationError{Field: "id", Message: "order id is required"}
	}
	if o.CancelledAt != nil {
		return nil, nil
	}
	var out []storage.BookedRange
	for i, li := range o.LineItems {
		customerID, ok := li.property(PropertyCustomerID)
		if !ok || customerID == "" {
			continue
		}
		from, err := parseProperty(li, PropertyFrom)
		if err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}
		to, err := parseProperty(li, PropertyTo)
		if err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}
		iv, err := availability.NewInterval(from, to)
		if err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}

		lineID := string(li.ID)
		if lineID == "" {
			lineID = fmt.Sprintf("%d", i)
		}
		out = append(out, storage.BookedRange{
			OrderID:    string(o.ID),
			LineItemID: lineID,
			CustomerID: customerID,
			Start:      iv.From,
			End:        iv.To,
		})
	}
	return out, nil
}

func parseProperty(li LineItem, name string) (time.Time, error) {
	raw, ok := li.property(name)
	if !ok || raw == "" {
		return time.Time{}, &availability.ValidationError{Field: name, Message: "is required"}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &availability.ValidationError{Field: name, Message: fmt.Sprintf("%q is not RFC 3339", raw)}
	}
	return t, nil
}
