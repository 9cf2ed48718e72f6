// Package pricing computes booking totals. Casual bookings are billed by the
// hour across a date range that occupies the same start/end hour window on
// every spanned day; monthly bookings are a flat pass-through rate.
package pricing

import (
	"fmt"
	"time"
)

// CasualTotal returns the total cost of an hourly booking from startDate to
// endDate inclusive, parked between startHour and endHour each day. When
// endHour is earlier than startHour the window wraps past midnight.
// No currency rounding is applied; callers format for display.
func CasualTotal(hourlyRate float64, startDate, endDate time.Time, startHour, endHour int) (float64, error) {
	if endDate.Before(startDate) {
		return 0, fmt.Errorf("pricing: end date %s before start date %s",
			endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
		return 0, fmt.Errorf("pricing: hours out of range: start=%d end=%d", startHour, endHour)
	}

	diffDays := wholeDays(startDate, endDate) + 1

	var totalHours int
	if endHour >= startHour {
		totalHours = (endHour - startHour) + (diffDays-1)*24
	} else {
		totalHours = (24 - startHour + endHour) + (diffDays-2)*24
	}

	return float64(totalHours) * hourlyRate, nil
}

// MonthlyTotal is the flat monthly rate, unchanged.
func MonthlyTotal(monthlyRate float64) float64 { return monthlyRate }

// wholeDays counts whole calendar days between two dates, ignoring the
// time-of-day component.
func wholeDays(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
