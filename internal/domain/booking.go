package domain

import "time"

// Recurrence values accepted on a booking. Empty means one-off.
const (
	RecurNone     = ""
	RecurDaily    = "daily"
	RecurWeekly   = "weekly"
	RecurBiweekly = "biweekly"
	RecurMonthly  = "monthly"
)

// ForeverYear marks the end date of a recurring booking with no fixed end.
const ForeverYear = 9998

// BookingTimeLayout is the wire format for booking start/end times,
// ISO 8601 without zone (times are local to the listing).
const BookingTimeLayout = "2006-01-02T15:04:05"

type Booking struct {
	ID         string   `json:"_id"`
	Consumer   string   `json:"consumer"`
	ListingID  string   `json:"listing_id"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Price      float64  `json:"price"`
	Recurring  string   `json:"recurring"`
	Exclusions []string `json:"exclusions"`
	Paid       bool     `json:"paid"`
}

func (b Booking) Start() (time.Time, error) {
	return time.Parse(BookingTimeLayout, b.StartTime)
}

func (b Booking) End() (time.Time, error) {
	return time.Parse(BookingTimeLayout, b.EndTime)
}

type Review struct {
	ID        string  `json:"_id"`
	UserID    string  `json:"user_id"`
	BookingID string  `json:"booking_id"`
	ListingID string  `json:"listing_id"`
	Name      string  `json:"name"`
	Rating    float64 `json:"rating"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
}

type Bill struct {
	ID        string  `json:"_id"`
	UserID    string  `json:"user_id"`
	BookingID string  `json:"booking_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
	Paid      bool    `json:"paid"`
}
