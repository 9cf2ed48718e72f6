package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sfcars-engine/internal/domain"
)

// Covers reports whether the listing's recurring weekly window accepts a
// casual booking spanning the given dates and hour-of-day range.
//
// A 24/7 listing accepts anything. Otherwise every spanned weekday must be
// enabled, the start hour must fall inside [open, close) and the end hour
// inside (open, close]. Listing hours are same-day only; a window whose
// close precedes its open never matches (overnight spans are rejected when
// the listing is created).
func Covers(av domain.Availability, startDate, endDate time.Time, startHour, endHour int) (bool, error) {
	if av.Is247 {
		return true, nil
	}

	for d := dateOnly(startDate); !d.After(dateOnly(endDate)); d = d.AddDate(0, 0, 1) {
		if !av.AvailableDays[d.Weekday().String()] {
			return false, nil
		}
	}

	open, err := ParseClock(av.StartTime)
	if err != nil {
		return false, fmt.Errorf("listing start_time: %w", err)
	}
	close, err := ParseClock(av.EndTime)
	if err != nil {
		return false, fmt.Errorf("listing end_time: %w", err)
	}

	start := float64(startHour)
	end := float64(endHour)

	startOK := start >= open && start < close
	endOK := end > open && end <= close

	return startOK && endOK, nil
}

// ParseClock converts an "HH:MM" string to fractional hours (9:30 -> 9.5).
func ParseClock(s string) (float64, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	min, err := strconv.Atoi(m)
	if err != nil || min < 0 || min > 59 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	return float64(hour) + float64(min)/60, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
