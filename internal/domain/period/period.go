// Package period provides month-granular inclusive periods used for benefit
// periods, condition assessments, living situations and deductions.
package period

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrInvalidMonth is returned when a month cannot be parsed
	ErrInvalidMonth = errors.New("invalid month")

	// ErrEndBeforeStart is returned when a period ends before it starts
	ErrEndBeforeStart = errors.New("period ends before it starts")
)

// Month is a calendar month
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth creates a month
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a month in YYYY-MM format
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %s", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// String returns the month in YYYY-MM format
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// index returns a monotonically increasing month number
func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

func monthFromIndex(i int) Month {
	return Month{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// Before reports whether m is before o
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// After reports whether m is after o
func (m Month) After(o Month) bool {
	return m.index() > o.index()
}

// Compare returns -1, 0 or +1 as m is before, equal to or after o
func (m Month) Compare(o Month) int {
	switch {
	case m.Before(o):
		return -1
	case m.After(o):
		return 1
	default:
		return 0
	}
}

// Next returns the following month
func (m Month) Next() Month {
	return monthFromIndex(m.index() + 1)
}

// Prev returns the previous month
func (m Month) Prev() Month {
	return monthFromIndex(m.index() - 1)
}

// FirstDay returns the first day of the month in UTC
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last day of the month in UTC
func (m Month) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// MarshalText implements encoding.TextMarshaler
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Period is an inclusive range of whole months
type Period struct {
	From Month `json:"from"`
	To   Month `json:"to"`
}

// New creates a period from two months, inclusive
func New(from, to Month) (Period, error) {
	if to.Before(from) {
		return Period{}, fmt.Errorf("%w: %s - %s", ErrEndBeforeStart, from, to)
	}
	return Period{From: from, To: to}, nil
}

// Validate reports ErrEndBeforeStart for a reversed period
func (p Period) Validate() error {
	if p.To.Before(p.From) {
		return fmt.Errorf("%w: %s - %s", ErrEndBeforeStart, p.From, p.To)
	}
	return nil
}

// UnmarshalJSON decodes a period and rejects one that ends before it starts
func (p *Period) UnmarshalJSON(b []byte) error {
	var raw struct {
		From Month `json:"from"`
		To   Month `json:"to"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.From, raw.To)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MustNew is like New but panics on an invalid period. Intended for tests and constants.
func MustNew(from, to Month) Period {
	p, err := New(from, to)
	if err != nil {
		panic(err)
	}
	return p
}

// Year returns the period covering the full calendar year
func Year(year int) Period {
	return Period{From: NewMonth(year, time.January), To: NewMonth(year, time.December)}
}

// String returns the period as "from - to"
func (p Period) String() string {
	return p.From.String() + " - " + p.To.String()
}

// Length returns the number of months in the period, zero when reversed
func (p Period) Length() int {
	if p.To.Before(p.From) {
		return 0
	}
	return p.To.index() - p.From.index() + 1
}

// Months returns every month in the period in order
func (p Period) Months() []Month {
	if p.Length() == 0 {
		return nil
	}
	months := make([]Month, 0, p.Length())
	for i := p.From.index(); i <= p.To.index(); i++ {
		months = append(months, monthFromIndex(i))
	}
	return months
}

// Contains reports whether o lies fully within p
func (p Period) Contains(o Period) bool {
	return !o.From.Before(p.From) && !o.To.After(p.To)
}

// ContainsMonth reports whether m lies within p
func (p Period) ContainsMonth(m Month) bool {
	return !m.Before(p.From) && !m.After(p.To)
}

// Overlaps reports whether p and o share at least one month
func (p Period) Overlaps(o Period) bool {
	return !p.To.Before(o.From) && !o.To.Before(p.From)
}

// Intersect returns the months shared by p and o
func (p Period) Intersect(o Period) (Period, bool) {
	if !p.Overlaps(o) {
		return Period{}, false
	}
	from := p.From
	if o.From.After(from) {
		from = o.From
	}
	to := p.To
	if o.To.Before(to) {
		to = o.To
	}
	return Period{From: from, To: to}, true
}

// Sort orders periods by start month, then end month
func Sort(periods []Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].From != periods[j].From {
			return periods[i].From.Before(periods[j].From)
		}
		return periods[i].To.Before(periods[j].To)
	})
}

// IsSorted reports whether periods are ordered by start month
func IsSorted(periods []Period) bool {
	for i := 1; i < len(periods); i++ {
		if periods[i].From.Before(periods[i-1].From) {
			return false
		}
	}
	return true
}

// HasOverlap reports whether any two periods share a month. Input must be sorted.
func HasOverlap(sorted []Period) bool {
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].To.Before(sorted[i].From) {
			return true
		}
	}
	return false
}

// IsContiguous reports whether each period starts the month after the previous one ends.
// Input must be sorted.
func IsContiguous(sorted []Period) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].To.Next() != sorted[i].From {
			return false
		}
	}
	return true
}

// Span returns the smallest period containing every input period
func Span(periods []Period) (Period, bool) {
	if len(periods) == 0 {
		return Period{}, false
	}
	span := periods[0]
	for _, p := range periods[1:] {
		if p.From.Before(span.From) {
			span.From = p.From
		}
		if p.To.After(span.To) {
			span.To = p.To
		}
	}
	return span, true
}

// CoversExactly reports whether sorted periods are contiguous, non-overlapping
// and together equal target
func CoversExactly(sorted []Period, target Period) bool {
	if len(sorted) == 0 || HasOverlap(sorted) || !IsContiguous(sorted) {
		return false
	}
	return sorted[0].From == target.From && sorted[len(sorted)-1].To == target.To
}
