package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfcars-engine/internal/domain"
)

func validAddress() domain.Address {
	return domain.Address{
		Street: "George St", StreetNumber: "200", City: "Sydney",
		State: "NSW", Postcode: "2000", Country: "Australia",
		Lat: -33.866615, Lng: 151.209296,
	}
}

func rate(v float64) *float64 { return &v }

func complete(t *testing.T, d *Draft) {
	t.Helper()
	require.NoError(t, d.SetAddress(validAddress()))
	require.NoError(t, d.SetSpotDetails("driveway", "suv", "none"))
	require.NoError(t, d.SetDescription("covered spot near the station", []string{"img"}))
	require.NoError(t, d.SetPricing(rate(10), nil, domain.Availability{Is247: true}))
	require.NoError(t, d.SetFeatures("no", "enter via the side gate"))
}

func TestWizardHappyPath(t *testing.T) {
	d := New()
	assert.Equal(t, StepSelectAddress, d.Step())

	complete(t, d)
	assert.Equal(t, StepPreview, d.Step())

	preview, err := d.Preview()
	require.NoError(t, err)
	assert.Equal(t, "driveway", preview.ListingType)

	listing, err := d.Confirm()
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, d.Step())
	assert.Equal(t, 10.0, *listing.HourlyRate)
}

func TestWizardForbidsSkippingSteps(t *testing.T) {
	d := New()
	err := d.SetPricing(rate(10), nil, domain.Availability{Is247: true})
	assert.Error(t, err)

	_, err = d.Confirm()
	assert.Error(t, err)
}

func TestWizardStepStaysOnInvalidPayload(t *testing.T) {
	d := New()
	err := d.SetAddress(domain.Address{})
	assert.Error(t, err)
	assert.Equal(t, StepSelectAddress, d.Step())
}

func TestWizardRequiresSomeRate(t *testing.T) {
	d := New()
	require.NoError(t, d.SetAddress(validAddress()))
	require.NoError(t, d.SetSpotDetails("garage", "hatchback", "key"))
	require.NoError(t, d.SetDescription("desc", []string{"img"}))

	err := d.SetPricing(nil, nil, domain.Availability{Is247: true})
	require.Error(t, err)
	assert.Equal(t, "Valid rate is required", err.Error())
}

func TestWizardRejectsOvernightAvailability(t *testing.T) {
	d := New()
	require.NoError(t, d.SetAddress(validAddress()))
	require.NoError(t, d.SetSpotDetails("garage", "hatchback", "key"))
	require.NoError(t, d.SetDescription("desc", []string{"img"}))

	av := domain.Availability{
		StartTime: "22:00", EndTime: "06:00",
		AvailableDays: map[string]bool{"Monday": true},
	}
	err := d.SetPricing(rate(5), nil, av)
	assert.Error(t, err)
}

func TestWizardConfirmOnlyOnce(t *testing.T) {
	d := New()
	complete(t, d)
	_, err := d.Confirm()
	require.NoError(t, err)

	_, err = d.Confirm()
	assert.Error(t, err)
}
