// Package inbox builds the in-app messages the engine delivers on booking,
// payment and review events. Messages are plain text, addressed from the
// marketplace's no-reply sender.
package inbox

import (
	"fmt"

	"sfcars-engine/internal/domain"
)

// Sender is the from-address stamped on every generated message.
const Sender = "noreply@sfcars.com.au"

const signoff = "Thank you for choosing SFCars. If you have any questions or need further assistance, please don't hesitate to contact us.\n\nBest regards,\nSFCars Team"

func shortAddress(a domain.Address) string {
	return a.StreetNumber + " " + a.Street
}

// BookingConfirmation is sent to the consumer when their booking is created.
func BookingConfirmation(u domain.User, b domain.Booking, addr domain.Address) domain.Message {
	body := fmt.Sprintf(`Dear %s,

We are pleased to inform you that your parking space booking has been confirmed!

Details:
- Booking ID: %s
- Address: %s
- Start Time: %s
- End Time: %s
- Total Price: %g

%s`, u.FirstName, b.ID, addr.FormattedAddress, b.StartTime, b.EndTime, b.Price, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Booking Confirmation @ " + shortAddress(addr),
		Body:        body,
	}
}

// BookingCancellation is sent to the consumer after they cancel.
func BookingCancellation(u domain.User, addr domain.Address) domain.Message {
	body := fmt.Sprintf(`Dear %s,

We have confirmed your cancellation of your booking @ %s.

Additional Note: refunds are not offered as part of cancellations.

%s`, u.FirstName, shortAddress(addr), signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Booking Cancellation @ " + shortAddress(addr),
		Body:        body,
	}
}

// ProviderBooked notifies the listing owner of a new booking.
func ProviderBooked(u domain.User, b domain.Booking, addr domain.Address) domain.Message {
	body := fmt.Sprintf(`Dear %s,

We are pleased to inform you that your listing @ %s has been booked!

Details:
- Listing: %s
- Address: %s
- Start Time: %s
- End Time: %s
- Price: %g

Once the booking has been paid, payment will be transferred into your wallet.

%s`, u.FirstName, shortAddress(addr), b.ListingID, addr.FormattedAddress, b.StartTime, b.EndTime, b.Price, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Your listing has been booked!",
		Body:        body,
	}
}

// ProviderCancelled notifies the listing owner that a booking was cancelled.
func ProviderCancelled(u domain.User, addr domain.Address) domain.Message {
	body := fmt.Sprintf(`Dear %s,

Unfortunately, we have to inform you that a booking at your listing has been cancelled.

But do not worry, your money is safe and sound and no refund is required!

%s`, u.FirstName, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Booking Cancellation @ " + shortAddress(addr),
		Body:        body,
	}
}

// PaymentReceipt is sent to the payer after a successful payment.
func PaymentReceipt(u domain.User, paymentID, paymentDate string, amount float64) domain.Message {
	body := fmt.Sprintf(`Dear %s,

We hope this email finds you well. We are delighted to confirm your booking.

As requested, here is the payment receipt for your reference.

Payment Details:
Transaction ID: %s
Date: %s
Amount: %g
Payment Status: paid

Please keep this email for your records.

%s`, u.FirstName, paymentID, paymentDate, amount, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Payment Receipt #" + paymentID,
		Body:        body,
	}
}

// PaymentReceived is sent to the provider when their listing is paid for.
func PaymentReceived(u domain.User, paymentID, paymentDate string, amount float64) domain.Message {
	body := fmt.Sprintf(`Dear %s,

We hope this email finds you well. We are pleased to inform you that your car space listing has been booked by another customer!

As requested, here is the payment receipt for your reference.

Payment Details:
Transaction ID: %s
Date: %s
Amount: %g
Payment Status: paid

Please keep this email for your records.

%s`, u.FirstName, paymentID, paymentDate, amount, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Payment Received #" + paymentID,
		Body:        body,
	}
}

// ReviewNotification tells the provider a review landed on their listing.
func ReviewNotification(u domain.User, r domain.Review, addr domain.Address) domain.Message {
	body := fmt.Sprintf(`Dear %s,

A review has been made on your listing @ %s.

Here are the details of your review:

Name: %s
Rating: %g
Message: %s

%s`, u.FirstName, shortAddress(addr), r.Name, r.Rating, r.Message, signoff)

	return domain.Message{
		RecipientID: u.ID,
		Email:       u.Email,
		Subject:     "Review created on your listing @ " + shortAddress(addr),
		Body:        body,
	}
}
