// Package wizard drives listing creation as an explicit state machine.
// Each step validates its own payload and advances; a step can only run when
// the draft is exactly at that step, so no listing reaches Confirmed with
// unvalidated data.
package wizard

import (
	"errors"
	"fmt"

	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/search"
)

type Step int

const (
	StepSelectAddress Step = iota
	StepSpotDetails
	StepDescription
	StepPricing
	StepFeatures
	StepPreview
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepSelectAddress:
		return "select_address"
	case StepSpotDetails:
		return "spot_details"
	case StepDescription:
		return "description"
	case StepPricing:
		return "pricing"
	case StepFeatures:
		return "features"
	case StepPreview:
		return "preview"
	case StepConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// Draft is an in-progress listing. Zero value starts at SelectAddress.
type Draft struct {
	step    Step
	listing domain.Listing
}

func New() *Draft { return &Draft{} }

func (d *Draft) Step() Step { return d.step }

func (d *Draft) at(want Step) error {
	if d.step != want {
		return fmt.Errorf("wizard: step is %s, expected %s", d.step, want)
	}
	return nil
}

func (d *Draft) SetAddress(a domain.Address) error {
	if err := d.at(StepSelectAddress); err != nil {
		return err
	}
	if a.Street == "" || a.City == "" {
		return errors.New("Valid address is required")
	}
	if a.Lat < -90 || a.Lat > 90 || a.Lng < -180 || a.Lng > 180 {
		return errors.New("Valid address is required")
	}
	d.listing.Address = a
	d.step = StepSpotDetails
	return nil
}

func (d *Draft) SetSpotDetails(listingType, maxVehicleSize, accessType string) error {
	if err := d.at(StepSpotDetails); err != nil {
		return err
	}
	if listingType == "" {
		return errors.New("Valid car space type is required")
	}
	if maxVehicleSize == "" {
		return errors.New("Valid max vehicle size is required")
	}
	if accessType == "" {
		return errors.New("Valid access type is required")
	}
	d.listing.ListingType = listingType
	d.listing.MaxVehicleSize = maxVehicleSize
	d.listing.AccessType = accessType
	d.step = StepDescription
	return nil
}

func (d *Draft) SetDescription(description string, photos []string) error {
	if err := d.at(StepDescription); err != nil {
		return err
	}
	if description == "" {
		return errors.New("Valid description is required")
	}
	if len(photos) == 0 {
		return errors.New("Valid images are required")
	}
	d.listing.Description = description
	d.listing.Photos = photos
	d.step = StepPricing
	return nil
}

func (d *Draft) SetPricing(hourly, monthly *float64, av domain.Availability) error {
	if err := d.at(StepPricing); err != nil {
		return err
	}
	if hourly == nil && monthly == nil {
		return errors.New("Valid rate is required")
	}
	if hourly != nil && *hourly < 0 {
		return errors.New("Valid hourly rate is required")
	}
	if monthly != nil && *monthly < 0 {
		return errors.New("Valid monthly rate is required")
	}
	if err := checkAvailability(av); err != nil {
		return err
	}
	d.listing.HourlyRate = hourly
	d.listing.MonthlyRate = monthly
	d.listing.Availability = av
	d.step = StepFeatures
	return nil
}

func (d *Draft) SetFeatures(electricCharging, instructions string) error {
	if err := d.at(StepFeatures); err != nil {
		return err
	}
	if electricCharging == "" {
		return errors.New("Valid electric charging is required")
	}
	if instructions == "" {
		return errors.New("Valid instructions are required")
	}
	d.listing.ElectricCharging = electricCharging
	d.listing.Instructions = instructions
	d.step = StepPreview
	return nil
}

// Preview exposes the assembled listing for review without committing it.
func (d *Draft) Preview() (domain.Listing, error) {
	if err := d.at(StepPreview); err != nil {
		return domain.Listing{}, err
	}
	return d.listing, nil
}

// Confirm finalizes the draft. Only valid from Preview.
func (d *Draft) Confirm() (domain.Listing, error) {
	if err := d.at(StepPreview); err != nil {
		return domain.Listing{}, err
	}
	d.step = StepConfirmed
	return d.listing, nil
}

// checkAvailability rejects windows the matcher cannot express: overnight
// hours (close before open) have no defined search behavior, so they are
// refused up front.
func checkAvailability(av domain.Availability) error {
	if av.Is247 {
		return nil
	}
	open, err := search.ParseClock(av.StartTime)
	if err != nil {
		return errors.New("Valid availability is required")
	}
	close, err := search.ParseClock(av.EndTime)
	if err != nil {
		return errors.New("Valid availability is required")
	}
	if open >= close {
		return errors.New("Availability end time must be after start time")
	}
	anyDay := false
	for _, on := range av.AvailableDays {
		if on {
			anyDay = true
			break
		}
	}
	if !anyDay {
		return errors.New("Valid availability is required")
	}
	return nil
}
