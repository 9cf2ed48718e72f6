// Package booking holds the slot-conflict rules: whether a proposed booking
// collides with existing ones, including recurring series and their
// exclusions.
package booking

import (
	"fmt"
	"time"

	"sfcars-engine/internal/domain"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// occurrenceCap bounds recurring expansion so a degenerate series can never
// spin the conflict check forever.
const occurrenceCap = 1000

// Conflicts reports whether the proposed [start, end) slot collides with any
// of the given bookings. Recurring series are expanded occurrence by
// occurrence up to the proposed end; occurrences cancelled via exclusions do
// not conflict.
func Conflicts(existing []domain.Booking, exclusions func(id string) []domain.Booking, start, end time.Time) (bool, error) {
	proposed := Interval{Start: start, End: end}

	for _, b := range existing {
		occ, err := firstOccurrence(b)
		if err != nil {
			return false, fmt.Errorf("booking %s: %w", b.ID, err)
		}

		step := recurrenceStep(b.Recurring)
		if step == nil {
			if occ.Overlaps(proposed) {
				return true, nil
			}
			continue
		}

		excs := exclusions(b.ID)
		for i := 0; i < occurrenceCap && !occ.Start.After(end); i++ {
			if occ.Overlaps(proposed) && !excluded(excs, occ) {
				return true, nil
			}
			occ = Interval{Start: step(occ.Start), End: step(occ.End)}
		}
	}

	return false, nil
}

// firstOccurrence returns the base interval of a booking. A recurring
// booking's stored end carries the forever year; its real occurrence end is
// the end's month/day/time within the start's year.
func firstOccurrence(b domain.Booking) (Interval, error) {
	s, err := b.Start()
	if err != nil {
		return Interval{}, err
	}
	e, err := b.End()
	if err != nil {
		return Interval{}, err
	}
	if b.Recurring != domain.RecurNone && e.Year() == domain.ForeverYear {
		e = time.Date(s.Year(), e.Month(), e.Day(), e.Hour(), e.Minute(), e.Second(), 0, e.Location())
	}
	return Interval{Start: s, End: e}, nil
}

func recurrenceStep(recurring string) func(time.Time) time.Time {
	switch recurring {
	case domain.RecurDaily:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case domain.RecurWeekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case domain.RecurBiweekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 14) }
	case domain.RecurMonthly:
		return func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	}
	return nil
}

// excluded reports whether an occurrence was cancelled out of its series.
func excluded(excs []domain.Booking, occ Interval) bool {
	for _, exc := range excs {
		es, err1 := exc.Start()
		ee, err2 := exc.End()
		if err1 != nil || err2 != nil {
			continue
		}
		if (Interval{Start: es, End: ee}).Overlaps(occ) {
			return true
		}
	}
	return false
}
