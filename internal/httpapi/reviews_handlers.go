package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/inbox"
	"sfcars-engine/internal/store"
)

type ReviewsHandler struct {
	DB *sql.DB
}

type newReviewRequest struct {
	Rating  *float64 `json:"rating"`
	Message *string  `json:"message"`
}

// ServeHTTP dispatches /bookings/{id}/review. Only the booking's consumer or
// an admin may touch the review.
func (h ReviewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/bookings/")
	bkn, err := store.GetBooking(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Booking doesn't exist")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	userID := UserIDFrom(r.Context())
	if userID != bkn.Consumer {
		u, err := store.GetUser(r.Context(), h.DB, userID)
		if err != nil || !u.IsAdmin {
			WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
	}

	if r.Method == http.MethodPost {
		h.create(w, r, bkn)
		return
	}

	review, err := store.GetReviewByBooking(r.Context(), h.DB, bkn.ID)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Review does not exist")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, review)
	case http.MethodPut:
		h.update(w, r, review)
	case http.MethodDelete:
		if err := store.DeleteReview(r.Context(), h.DB, review.ID, review.ListingID); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h ReviewsHandler) create(w http.ResponseWriter, r *http.Request, bkn domain.Booking) {
	if _, err := store.GetReviewByBooking(r.Context(), h.DB, bkn.ID); err == nil {
		fieldError(w, 400, "Review already exists")
		return
	}

	var req newReviewRequest
	if err := decodeBody(r, &req); err != nil {
		fieldError(w, 400, "Valid rating is required")
		return
	}
	if req.Rating == nil {
		fieldError(w, 400, "Valid rating is required")
		return
	}
	if req.Message == nil {
		fieldError(w, 400, "Valid message is required")
		return
	}

	author, err := store.GetUser(r.Context(), h.DB, UserIDFrom(r.Context()))
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	review := domain.Review{
		UserID:    author.ID,
		BookingID: bkn.ID,
		ListingID: bkn.ListingID,
		Name:      author.FirstName,
		Rating:    *req.Rating,
		Message:   *req.Message,
		Timestamp: time.Now().Format(domain.BookingTimeLayout),
	}
	id, err := store.CreateReview(r.Context(), h.DB, review)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	review.ID = id

	h.notifyProvider(r, review)
	writeJSON(w, map[string]string{"review_id": id})
}

func (h ReviewsHandler) update(w http.ResponseWriter, r *http.Request, review domain.Review) {
	var patch map[string]json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		fieldError(w, 400, "Invalid update key")
		return
	}
	for _, key := range []string{"_id", "user_id", "booking_id", "listing_id", "name", "timestamp"} {
		if _, found := patch[key]; found {
			fieldError(w, 400, "Cannot update "+key)
			return
		}
	}

	merged, err := applyPatch(review, patch, "Update value has invalid typing")
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	merged.Timestamp = time.Now().Format(domain.BookingTimeLayout)

	if err := store.SaveReview(r.Context(), h.DB, merged); err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]string{"booking_id": review.ID})
}

func (h ReviewsHandler) notifyProvider(r *http.Request, review domain.Review) {
	listing, err := store.GetListing(r.Context(), h.DB, review.ListingID)
	if err != nil {
		return
	}
	provider, err := store.GetUser(r.Context(), h.DB, listing.Provider)
	if err != nil {
		return
	}
	msg := inbox.ReviewNotification(provider, review, listing.Address)
	_ = store.CreateMessage(r.Context(), h.DB, &msg)
}
