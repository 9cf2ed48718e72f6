package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfcars-engine/internal/domain"
)

func booking(start string, price float64) domain.Booking {
	return domain.Booking{StartTime: start, EndTime: start, Price: price}
}

func TestBuildGroupsRevenueByMonth(t *testing.T) {
	listings := []domain.Listing{{ID: "l1"}}
	byListing := map[string][]domain.Booking{
		"l1": {
			booking("2023-01-05T09:00:00", 100),
			booking("2023-01-20T09:00:00", 50),
			booking("2023-03-01T09:00:00", 200),
		},
	}

	r, err := Build(listings, byListing)
	require.NoError(t, err)

	require.Len(t, r.MonthlyRevenue, 2)
	assert.Equal(t, MonthlyRevenue{Month: 1, Revenue: 150}, r.MonthlyRevenue[0])
	assert.Equal(t, MonthlyRevenue{Month: 3, Revenue: 200}, r.MonthlyRevenue[1])
	assert.Equal(t, 3, r.TotalBookings)
}

func TestBuildBookingsPerListing(t *testing.T) {
	listings := []domain.Listing{
		{ID: "l1", Address: domain.Address{Street: "George St"}},
		{ID: "l2", Address: domain.Address{Street: "Martin Pl"}},
	}
	byListing := map[string][]domain.Booking{
		"l1": {booking("2023-01-05T09:00:00", 10), booking("2023-02-05T09:00:00", 10)},
		"l2": {booking("2023-01-06T09:00:00", 10)},
	}

	r, err := Build(listings, byListing)
	require.NoError(t, err)

	require.Len(t, r.BookingsPerListing, 2)
	assert.Equal(t, 2, r.BookingsPerListing[0].Bookings)
	assert.Equal(t, "George St", r.BookingsPerListing[0].Address.Street)
	assert.Equal(t, 1, r.BookingsPerListing[1].Bookings)
}

func TestBuildEmpty(t *testing.T) {
	r, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, r.TotalBookings)
	assert.Empty(t, r.MonthlyRevenue)
}

func TestBuildMalformedTime(t *testing.T) {
	_, err := Build([]domain.Listing{{ID: "l1"}}, map[string][]domain.Booking{
		"l1": {booking("garbage", 10)},
	})
	assert.Error(t, err)
}
