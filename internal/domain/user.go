package domain

// User is a marketplace account. PasswordHash never leaves the store layer
// unredacted; handlers strip it before responding.
type User struct {
	ID             string        `json:"_id"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	PhoneNumber    string        `json:"phone_number"`
	VehicleDetails []Vehicle     `json:"vehicle_details"`
	PaymentDetails []PaymentCard `json:"payment_details"`
	IsAdmin        bool          `json:"is_admin"`
	Revenue        float64       `json:"revenue"`
	Rating         *float64      `json:"rating"`
	ProfilePicture string        `json:"pfp"`
	Wallet         float64       `json:"wallet"`
}

type Vehicle struct {
	Registration string `json:"registration"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Size         string `json:"size"`
}

type PaymentCard struct {
	CardName   string `json:"card_name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
}

// Transaction is one wallet movement (top-up, withdrawal, payment, payout).
type Transaction struct {
	ID        string  `json:"_id"`
	UserID    string  `json:"-"`
	ListingID string  `json:"listing,omitempty"`
	BookingID string  `json:"booking,omitempty"`
	Amount    float64 `json:"amount"`
	Balance   float64 `json:"balance"`
	Timestamp string  `json:"timestamp"`
}

// Message is an in-app inbox item (booking confirmations, receipts).
type Message struct {
	ID          string `json:"_id"`
	RecipientID string `json:"recipient_id"`
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Timestamp   string `json:"timestamp"`
}
