package domain

// Address is the geocoded location of a parking spot, shaped like the
// places-autocomplete payload the frontend submits.
type Address struct {
	FormattedAddress string  `json:"formatted_address"`
	StreetNumber     string  `json:"street_number"`
	Street           string  `json:"street"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Postcode         string  `json:"postcode"`
	Country          string  `json:"country"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	PlaceID          string  `json:"place_id,omitempty"`
}

// Availability is the recurring weekly window during which a listing accepts
// casual bookings. When Is247 is set the days and times are not consulted.
type Availability struct {
	Is247         bool            `json:"is_24_7"`
	StartTime     string          `json:"start_time"` // "HH:MM"
	EndTime       string          `json:"end_time"`   // "HH:MM"
	AvailableDays map[string]bool `json:"available_days"`
}

type Listing struct {
	ID               string       `json:"_id"`
	Provider         string       `json:"provider"`
	Address          Address      `json:"address"`
	HourlyRate       *float64     `json:"hourly_rate,omitempty"`
	MonthlyRate      *float64     `json:"monthly_rate,omitempty"`
	ListingType      string       `json:"listing_type"`
	MaxVehicleSize   string       `json:"max_vehicle_size"`
	Description      string       `json:"description"`
	AccessType       string       `json:"access_type"`
	Photos           []string     `json:"photos"`
	Instructions     string       `json:"instructions"`
	ElectricCharging string       `json:"electric_charging"`
	Availability     Availability `json:"availability"`
	Rating           *float64     `json:"rating"`
	Reviews          []Review     `json:"reviews,omitempty"`
}

// Casual reports whether the listing offers hourly bookings.
func (l Listing) Casual() bool { return l.HourlyRate != nil }

// Monthly reports whether the listing offers flat monthly bookings.
func (l Listing) Monthly() bool { return l.MonthlyRate != nil }
