package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sfcars-engine/internal/booking"
	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/events"
	"sfcars-engine/internal/inbox"
	"sfcars-engine/internal/store"
)

type BookingsHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

type bookRequest struct {
	ListingID *string  `json:"listing_id"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
	Price     *float64 `json:"price"`
	Recurring string   `json:"recurring"`
}

type cancelRequest struct {
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Book creates a booking after the self-booking and slot-conflict checks.
func (h BookingsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeBody(r, &req); err != nil {
		fieldError(w, 400, "Valid listing id is required")
		return
	}
	if req.ListingID == nil {
		fieldError(w, 400, "Valid listing id is required")
		return
	}
	if req.StartTime == nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	if req.EndTime == nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}
	if req.Price == nil || *req.Price < 0 {
		fieldError(w, 400, "Valid pricing is required")
		return
	}

	start, err := time.Parse(domain.BookingTimeLayout, *req.StartTime)
	if err != nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	end, err := time.Parse(domain.BookingTimeLayout, *req.EndTime)
	if err != nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}

	consumerID := UserIDFrom(r.Context())
	listing, err := store.GetListing(r.Context(), h.DB, *req.ListingID)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Invalid listing id")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if listing.Provider == consumerID {
		fieldError(w, 400, "User cannot book their own listing")
		return
	}

	existing, err := store.BookingsForListing(r.Context(), h.DB, listing.ID)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	conflict, err := booking.Conflicts(existing, h.exclusionsFn(r), start, end)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if conflict {
		fieldError(w, 400, "Invalid time slot")
		return
	}

	endTime := *req.EndTime
	if req.Recurring != domain.RecurNone {
		// A recurring series has no fixed end; the stored end carries the
		// forever year and keeps the occurrence's month/day/time.
		endTime = time.Date(domain.ForeverYear, end.Month(), end.Day(),
			end.Hour(), end.Minute(), end.Second(), 0, end.Location()).
			Format(domain.BookingTimeLayout)
	}

	id, err := store.CreateBooking(r.Context(), h.DB, domain.Booking{
		Consumer:  consumerID,
		ListingID: listing.ID,
		StartTime: *req.StartTime,
		EndTime:   endTime,
		Price:     *req.Price,
		Recurring: req.Recurring,
	})
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	h.notifyBooked(r, id, listing, *req.StartTime, *req.EndTime, *req.Price)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeBookingCreated, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]string{"booking_id": id})
}

// Get handles GET /bookings/{id}.
func (h BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	bkn, ok := h.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, bkn)
}

// Update handles PUT /bookings/{id}. A one-off booking is patched in place;
// moving an occurrence of a recurring series excludes the old slot and books
// the new one as a one-off.
func (h BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	bkn, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.consumerOrAdmin(w, r, bkn.Consumer) {
		return
	}

	var patch map[string]json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		fieldError(w, 400, "Invalid update key")
		return
	}
	if _, found := patch["_id"]; found {
		fieldError(w, 400, "Cannot update id")
		return
	}

	merged, err := applyPatch(bkn, patch, "Update value has invalid typing")
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}

	if bkn.Recurring == domain.RecurNone {
		if err := store.SaveBooking(r.Context(), h.DB, merged); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, map[string]string{"booking_id": bkn.ID})
		return
	}

	newStart, err := time.Parse(domain.BookingTimeLayout, merged.StartTime)
	if err != nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	excStart, excEnd, err := occurrenceOn(bkn, newStart)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if _, err := store.AddExclusion(r.Context(), h.DB, bkn.ID, excStart, excEnd); err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	newID, err := store.CreateBooking(r.Context(), h.DB, domain.Booking{
		Consumer:  bkn.Consumer,
		ListingID: bkn.ListingID,
		StartTime: merged.StartTime,
		EndTime:   merged.EndTime,
		Price:     bkn.Price,
	})
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]string{"booking_id": newID})
}

// Cancel handles DELETE /bookings/{id}. The body's type selects whole-booking
// deletion (empty), a single occurrence ("single"), or all future occurrences
// ("future").
func (h BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	bkn, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.consumerOrAdmin(w, r, bkn.Consumer) {
		return
	}

	var req cancelRequest
	_ = decodeBody(r, &req)

	switch req.Type {
	case "":
		if err := store.DeleteBooking(r.Context(), h.DB, bkn.ID); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
	case "single":
		if _, err := store.AddExclusion(r.Context(), h.DB, bkn.ID, req.StartTime, req.EndTime); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
	case "future":
		// An open-ended exclusion from the cutoff suppresses every later
		// occurrence.
		forever := time.Date(domain.ForeverYear, 12, 31, 23, 59, 59, 0, time.UTC).
			Format(domain.BookingTimeLayout)
		if _, err := store.AddExclusion(r.Context(), h.DB, bkn.ID, req.StartTime, forever); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
	default:
		fieldError(w, 400, "Invalid cancellation type")
		return
	}

	h.notifyCancelled(r, bkn)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeBookingCancelled, 1, map[string]any{"id": bkn.ID}))
	writeJSON(w, map[string]any{})
}

// Completed handles GET /profile/completed-bookings.
func (h BookingsHandler) Completed(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())
	now := time.Now().Format(domain.BookingTimeLayout)
	bookings, err := store.CompletedBookings(r.Context(), h.DB, userID, now)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, bookings)
}

func (h BookingsHandler) fetch(w http.ResponseWriter, r *http.Request) (domain.Booking, bool) {
	id := pathTail(r.URL.Path, "/bookings/")
	bkn, err := store.GetBooking(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Booking doesn't exist")
		return domain.Booking{}, false
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return domain.Booking{}, false
	}
	return bkn, true
}

func (h BookingsHandler) consumerOrAdmin(w http.ResponseWriter, r *http.Request, consumer string) bool {
	userID := UserIDFrom(r.Context())
	if userID == consumer {
		return true
	}
	u, err := store.GetUser(r.Context(), h.DB, userID)
	if err != nil || !u.IsAdmin {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return false
	}
	return true
}

func (h BookingsHandler) exclusionsFn(r *http.Request) func(id string) []domain.Booking {
	return func(id string) []domain.Booking {
		excs, err := store.ExclusionsFor(r.Context(), h.DB, id)
		if err != nil {
			return nil
		}
		return excs
	}
}

func (h BookingsHandler) notifyBooked(r *http.Request, bookingID string, listing domain.Listing, start, end string, price float64) {
	consumer, err1 := store.GetUser(r.Context(), h.DB, UserIDFrom(r.Context()))
	provider, err2 := store.GetUser(r.Context(), h.DB, listing.Provider)
	if err1 != nil || err2 != nil {
		return
	}
	b := domain.Booking{ID: bookingID, ListingID: listing.ID, StartTime: start, EndTime: end, Price: price}
	cm := inbox.BookingConfirmation(consumer, b, listing.Address)
	pm := inbox.ProviderBooked(provider, b, listing.Address)
	_ = store.CreateMessage(r.Context(), h.DB, &cm)
	_ = store.CreateMessage(r.Context(), h.DB, &pm)
}

func (h BookingsHandler) notifyCancelled(r *http.Request, bkn domain.Booking) {
	listing, err := store.GetListing(r.Context(), h.DB, bkn.ListingID)
	if err != nil {
		return
	}
	consumer, err1 := store.GetUser(r.Context(), h.DB, bkn.Consumer)
	provider, err2 := store.GetUser(r.Context(), h.DB, listing.Provider)
	if err1 != nil || err2 != nil {
		return
	}
	cm := inbox.BookingCancellation(consumer, listing.Address)
	pm := inbox.ProviderCancelled(provider, listing.Address)
	_ = store.CreateMessage(r.Context(), h.DB, &cm)
	_ = store.CreateMessage(r.Context(), h.DB, &pm)
}

// occurrenceOn returns the series' occurrence interval on the given date,
// using the parent's clock times.
func occurrenceOn(b domain.Booking, day time.Time) (string, string, error) {
	s, err := b.Start()
	if err != nil {
		return "", "", err
	}
	e, err := b.End()
	if err != nil {
		return "", "", err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), s.Hour(), s.Minute(), s.Second(), 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), e.Hour(), e.Minute(), e.Second(), 0, day.Location())
	return start.Format(domain.BookingTimeLayout), end.Format(domain.BookingTimeLayout), nil
}
