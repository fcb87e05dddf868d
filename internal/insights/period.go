package insights

import (
	"fmt"
	"time"
)

// Period is a half-open time range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Month returns the calendar month containing t, in t's location.
func Month(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseMonth parses YYYY-MM into a UTC month period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}

	return Month(t), nil
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

// Prev returns the month before a month period.
func (p Period) Prev() Period {
	return Month(p.Start.AddDate(0, -1, 0))
}

// Next returns the month after a month period.
func (p Period) Next() Period {
	return Month(p.End)
}
