// Package analytics aggregates a provider's booking history for the
// dashboard: revenue by month, bookings per listing, totals.
package analytics

import (
	"sort"
	"time"

	"sfcars-engine/internal/domain"
)

type MonthlyRevenue struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

type ListingBookings struct {
	Address  domain.Address `json:"address"`
	Bookings int            `json:"bookings"`
}

type Report struct {
	MonthlyRevenue     []MonthlyRevenue  `json:"monthly_revenue"`
	BookingsPerListing []ListingBookings `json:"bookings_per_listing"`
	TotalBookings      int               `json:"total_bookings"`
}

// Build computes the provider report. bookingsByListing maps each of the
// provider's listings to the bookings made against it.
func Build(listings []domain.Listing, bookingsByListing map[string][]domain.Booking) (Report, error) {
	var all []domain.Booking
	for _, bs := range bookingsByListing {
		all = append(all, bs...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartTime < all[j].StartTime })

	var monthly []MonthlyRevenue
	for _, b := range all {
		start, err := time.Parse(domain.BookingTimeLayout, b.StartTime)
		if err != nil {
			return Report{}, err
		}
		month := int(start.Month())
		if len(monthly) == 0 || month > monthly[len(monthly)-1].Month {
			monthly = append(monthly, MonthlyRevenue{Month: month, Revenue: b.Price})
		} else {
			monthly[len(monthly)-1].Revenue += b.Price
		}
	}

	perListing := make([]ListingBookings, 0, len(listings))
	for _, l := range listings {
		perListing = append(perListing, ListingBookings{
			Address:  l.Address,
			Bookings: len(bookingsByListing[l.ID]),
		})
	}

	return Report{
		MonthlyRevenue:     monthly,
		BookingsPerListing: perListing,
		TotalBookings:      len(all),
	}, nil
}
