package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Day string

const (
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
)

var weekdays = [...]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range weekdays {
		if d == known {
			return d, nil
		}
	}
	return "", invalid("day", "unknown day %q", s)
}

func (d Day) Weekday() (time.Weekday, bool) {
	for i, known := range weekdays {
		if d == known {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ClockTime is a wall-clock time of day in the schedule's time zone, serialized as "HH:MM".
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return ClockTime{}, invalid("time", "%q is not HH:MM", s)
	}
	c := ClockTime{
		Hour:   int(s[0]-'0')*10 + int(s[1]-'0'),
		Minute: int(s[3]-'0')*10 + int(s[4]-'0'),
	}
	if c.Hour > 23 || c.Minute > 59 {
		return ClockTime{}, invalid("time", "%q is out of range", s)
	}
	return c, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the offset from midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock time to the calendar date of day in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalid("time", "must be a string")
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type ClockInterval struct {
	From ClockTime `json:"from"`
	To   ClockTime `json:"to"`
}

// WeeklySlot holds the opening hours of one weekday.
type WeeklySlot struct {
	Day       Day             `json:"day"`
	Intervals []ClockInterval `json:"intervals"`
}

type TimeUnit string

const (
	Hours  TimeUnit = "hours"
	Days   TimeUnit = "days"
	Weeks  TimeUnit = "weeks"
	Months TimeUnit = "months"
)

var (
	NoticeUnits  = []TimeUnit{Hours, Days, Weeks, Months}
	BookingUnits = []TimeUnit{Weeks, Months}
)

type Period struct {
	Value int      `json:"value"`
	Unit  TimeUnit `json:"unit"`
}

// AddTo advances t by the period. Calendar units follow t's location so that
// "1 day" spans 23 or 25 hours across a DST change.
func (p Period) AddTo(t time.Time) time.Time {
	switch p.Unit {
	case Hours:
		return t.Add(time.Duration(p.Value) * time.Hour)
	case Days:
		return t.AddDate(0, 0, p.Value)
	case Weeks:
		return t.AddDate(0, 0, 7*p.Value)
	case Months:
		return t.AddDate(0, p.Value, 0)
	default:
		return t
	}
}

func (p Period) Validate(field string, allowed []TimeUnit) error {
	if p.Value < 1 {
		return invalid(field+".value", "must be at least 1")
	}
	for _, u := range allowed {
		if p.Unit == u {
			return nil
		}
	}
	return invalid(field+".unit", "unsupported unit %q", p.Unit)
}

// Schedule is a customer's weekly template together with the products bookable against it.
type Schedule struct {
	ID         string       `json:"id"`
	CustomerID string       `json:"customerId"`
	Name       string       `json:"name"`
	Timezone   string       `json:"timezone"`
	Slots      []WeeklySlot `json:"slots"`
	Products   []Product    `json:"products"`
}

// Location returns the schedule's time zone, or fallback when none is set.
func (s Schedule) Location(fallback string) (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" {
		name = strings.TrimSpace(fallback)
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid("timezone", "unknown time zone %q", name)
	}
	return loc, nil
}

type Customer struct {
	ID       string `json:"customerId"`
	Username string `json:"username,omitempty"`
	Fullname string `json:"fullname"`
	Timezone string `json:"timezone,omitempty"`
}

type Shipping struct {
	ID          string  `json:"id"`
	Destination string  `json:"destination"`
	Cost        float64 `json:"cost"`
	Distance    float64 `json:"distance"`
	Duration    int     `json:"duration"`
}
