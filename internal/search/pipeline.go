// Package search filters and orders listing candidates for a search request.
// It is pure computation over an in-memory slice; fetching candidates and
// presenting results belong to the caller.
package search

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/geo"
)

type Mode string

const (
	ModeCasual  Mode = "casual"
	ModeMonthly Mode = "monthly"
)

type SortKey string

const (
	SortDistance SortKey = "distance"
	SortPrice    SortKey = "price"
)

// Point is the coordinate search results are distance-sorted against.
type Point struct {
	Lat float64
	Lng float64
}

// Window is one search request. StartHour/EndHour are consulted in casual
// mode only.
type Window struct {
	Mode      Mode
	StartDate time.Time
	EndDate   time.Time
	StartHour int
	EndHour   int
	Reference *Point
	Sort      SortKey
}

// Search filters candidates by mode and availability, then stable-sorts by
// the requested key. Equal-key listings keep their input order. The input
// slice is not modified.
func Search(candidates []domain.Listing, w Window) ([]domain.Listing, error) {
	if w.EndDate.Before(w.StartDate) {
		return nil, errors.New("search: end date before start date")
	}
	if w.Sort == SortDistance && w.Reference == nil {
		return nil, errors.New("search: distance sort requires a reference point")
	}

	kept := make([]domain.Listing, 0, len(candidates))
	for _, l := range candidates {
		switch w.Mode {
		case ModeCasual:
			if !l.Casual() {
				continue
			}
			ok, err := Covers(l.Availability, w.StartDate, w.EndDate, w.StartHour, w.EndHour)
			if err != nil {
				return nil, fmt.Errorf("search: listing %s: %w", l.ID, err)
			}
			if !ok {
				continue
			}
		case ModeMonthly:
			if !l.Monthly() {
				continue
			}
		default:
			return nil, fmt.Errorf("search: unknown mode %q", w.Mode)
		}
		kept = append(kept, l)
	}

	switch w.Sort {
	case SortDistance:
		ref := *w.Reference
		sort.SliceStable(kept, func(i, j int) bool {
			di := geo.DistanceKm(ref.Lat, ref.Lng, kept[i].Address.Lat, kept[i].Address.Lng)
			dj := geo.DistanceKm(ref.Lat, ref.Lng, kept[j].Address.Lat, kept[j].Address.Lng)
			return di < dj
		})
	case SortPrice:
		sort.SliceStable(kept, func(i, j int) bool {
			return rateFor(kept[i], w.Mode) < rateFor(kept[j], w.Mode)
		})
	}

	return kept, nil
}

func rateFor(l domain.Listing, m Mode) float64 {
	if m == ModeMonthly {
		return *l.MonthlyRate
	}
	return *l.HourlyRate
}
