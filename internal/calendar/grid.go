package calendar

import (
	"errors"
	"time"
)

// GridSize is six weeks of seven days.
const GridSize = 42

var (
	ErrPastDate     = errors.New("date is in the past")
	ErrOutsideMonth = errors.New("date is not in the displayed month")
	ErrNoDate       = errors.New("select a date first")
)

type Cell struct {
	Day    int  `json:"day"`
	Date   Date `json:"date"`
	IsPast bool `json:"is_past"`
}

// Layout returns the 42-cell grid for ym. Index 0 is a Sunday; cells before
// the 1st and after the last day are nil.
func Layout(ym YearMonth, today Date) []*Cell {
	cells := make([]*Cell, GridSize)
	first := ym.FirstDay()
	offset := int(first.Weekday())

	for day := 1; day <= ym.DaysIn(); day++ {
		d := Date{Year: ym.Year, Month: ym.Month, Day: day}
		cells[offset+day-1] = &Cell{
			Day:    day,
			Date:   d,
			IsPast: IsPast(d, today),
		}
	}

	return cells
}

// IsPast reports whether d is strictly before today. Today itself is not past.
func IsPast(d, today Date) bool {
	return d.Before(today)
}

// Clock returns the current local time.
type Clock func() time.Time

// Now falls back to time.Now for a nil Clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func (c Clock) Today() Date {
	return DateOf(c.Now())
}

// Fixed returns a Clock stopped at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Selection is the date/slot a caller has picked on a displayed month.
// Changing the month invalidates both.
type Selection struct {
	Month YearMonth `json:"month"`
	Date  Date      `json:"date"`
	Slot  string    `json:"slot,omitempty"`
}

func NewSelection(today Date) Selection {
	return Selection{Month: today.YearMonth()}
}

func (s *Selection) Navigate(delta int) {
	s.Month = s.Month.AddMonths(delta)
	s.Date = Date{}
	s.Slot = ""
}

func (s *Selection) SelectDate(d, today Date) error {
	if !s.Month.Contains(d) {
		return ErrOutsideMonth
	}
	if IsPast(d, today) {
		return ErrPastDate
	}
	s.Date = d
	s.Slot = ""
	return nil
}

func (s *Selection) SelectSlot(slot string) error {
	if s.Date.IsZero() {
		return ErrNoDate
	}
	s.Slot = slot
	return nil
}

func (s *Selection) Complete() bool {
	return !s.Date.IsZero() && s.Slot != ""
}
