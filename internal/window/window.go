package window

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

// MonthWindow is the half-open interval [After, Before) covering one
// calendar month.
type MonthWindow struct {
	Year   int
	Month  time.Month
	After  time.Time
	Before time.Time
}

// New returns the window of the given month, midnight to midnight in `loc`.
// December rolls over into January of the following year.
func New(year, month int, loc *time.Location) (MonthWindow, error) {
	if month < 1 || month > 12 {
		return MonthWindow{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1 {
		return MonthWindow{}, fmt.Errorf("%w: year %d", ErrInvalidMonth, year)
	}
	if loc == nil {
		loc = time.UTC
	}

	after := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return MonthWindow{
		Year:   year,
		Month:  time.Month(month),
		After:  after,
		Before: after.AddDate(0, 1, 0),
	}, nil
}

// Previous returns the window of the calendar month before `now`, in the
// location of `now`.
func Previous(now time.Time) MonthWindow {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := firstOfMonth.AddDate(0, -1, 0)
	return MonthWindow{
		Year:   prev.Year(),
		Month:  prev.Month(),
		After:  prev,
		Before: firstOfMonth,
	}
}

// Contains reports whether t falls inside the window.
func (w MonthWindow) Contains(t time.Time) bool {
	return !t.Before(w.After) && t.Before(w.Before)
}

// DetailFileName is the name of the per-lane file written for this month,
// ex. "2016-3_seq-stats.txt".
func (w MonthWindow) DetailFileName() string {
	return fmt.Sprintf("%d-%d_seq-stats.txt", w.Year, int(w.Month))
}

func (w MonthWindow) String() string {
	return fmt.Sprintf("%d-%d", w.Year, int(w.Month))
}
