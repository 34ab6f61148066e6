package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func iv(fromHour, fromMin, toHour, toMin int) Interval {
	return Interval{From: at(fromHour, fromMin), To: at(toHour, toMin)}
}

func TestIntersects_HalfOpen(t *testing.T) {
	assert.True(t, Intersects(iv(9, 0, 10, 0), iv(9, 30, 11, 0)))
	assert.False(t, Intersects(iv(9, 0, 10, 0), iv(10, 0, 11, 0)), "touching endpoints must not intersect")
	assert.False(t, Intersects(iv(10, 0, 11, 0), iv(9, 0, 10, 0)))
	assert.True(t, Intersects(iv(9, 0, 12, 0), iv(10, 0, 11, 0)))
	assert.False(t, Intersects(iv(9, 0, 12, 0), Interval{From: at(11, 0), To: at(10, 0)}), "inverted interval is empty")
}

func TestSubtract(t *testing.T) {
	base := iv(9, 0, 12, 0)
	tests := []struct {
		name string
		cut  Interval
		want []Interval
	}{
		{"no overlap", iv(13, 0, 14, 0), []Interval{base}},
		{"touching", iv(12, 0, 13, 0), []Interval{base}},
		{"covers", iv(8, 0, 13, 0), []Interval{}},
		{"exact", iv(9, 0, 12, 0), []Interval{}},
		{"overlaps start", iv(8, 0, 10, 0), []Interval{iv(10, 0, 12, 0)}},
		{"overlaps end", iv(11, 0, 13, 0), []Interval{iv(9, 0, 11, 0)}},
		{"splits", iv(10, 0, 11, 0), []Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtract(base, tt.cut)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, tt.want[i].From.Equal(got[i].From), "fragment %d from", i)
				assert.True(t, tt.want[i].To.Equal(got[i].To), "fragment %d to", i)
			}
		})
	}
}

func TestSubtract_ReconstitutesBase(t *testing.T) {
	base := iv(9, 0, 12, 0)
	cuts := []Interval{iv(8, 0, 10, 0), iv(10, 0, 11, 0), iv(11, 30, 13, 0), iv(7, 0, 8, 0), iv(9, 0, 12, 0)}
	for _, cut := range cuts {
		parts := Subtract(base, cut)
		if inter, ok := Intersection(base, cut); ok {
			parts = append(parts, inter)
		}
		var total time.Duration
		for i, p := range parts {
			assert.True(t, Contains(base, p), "part %v escapes base", p)
			for j := i + 1; j < len(parts); j++ {
				assert.False(t, Intersects(p, parts[j]), "parts %d and %d overlap", i, j)
			}
			total += p.Duration()
		}
		assert.Equal(t, base.Duration(), total, "cut %v", cut)
	}
}

func TestSubtractMany_OrderIndependent(t *testing.T) {
	base := iv(8, 0, 18, 0)
	cuts := []Interval{iv(9, 0, 10, 0), iv(12, 0, 13, 30), iv(9, 30, 11, 0), iv(17, 0, 19, 0)}
	want := []Interval{iv(8, 0, 9, 0), iv(11, 0, 12, 0), iv(13, 30, 17, 0)}

	perms := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, perm := range perms {
		ordered := make([]Interval, 0, len(cuts))
		for _, i := range perm {
			ordered = append(ordered, cuts[i])
		}
		assert.Equal(t, want, SubtractMany(base, ordered), "permutation %v", perm)
	}
}

func TestSubtractMany_Idempotent(t *testing.T) {
	base := iv(8, 0, 18, 0)
	cuts := []Interval{iv(9, 0, 10, 0), iv(15, 0, 16, 0)}

	once := SubtractMany(base, cuts)
	var twice []Interval
	for _, f := range once {
		twice = append(twice, SubtractMany(f, cuts)...)
	}
	assert.Equal(t, once, twice)
}

func TestNormalize(t *testing.T) {
	in := []Interval{iv(13, 0, 15, 0), iv(9, 0, 10, 0), iv(9, 30, 11, 0), iv(11, 0, 12, 0), iv(16, 0, 15, 0)}
	got := Normalize(in)
	assert.Equal(t, []Interval{iv(9, 0, 12, 0), iv(13, 0, 15, 0)}, got)
	assert.Equal(t, iv(13, 0, 15, 0), in[0], "input must not be reordered")
}

func TestNewInterval_RejectsInverted(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(9, 0))
	require.ErrorIs(t, err, ErrValidation)
	_, err = NewInterval(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, ErrValidation)
}
