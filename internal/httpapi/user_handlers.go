package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"sfcars-engine/internal/analytics"
	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/store"
)

type UserHandler struct {
	DB *sql.DB
}

// Profile handles GET/PUT/DELETE /user/profile for the authenticated user.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := store.GetUser(r.Context(), h.DB, UserIDFrom(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "unknown user")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		history, err := store.RecentTransactions(r.Context(), h.DB, u.ID)
		if err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, profileResponse{User: u, RecentTransactions: orEmptyTransactions(history)})
	case http.MethodPut:
		h.updateProfile(w, r, u)
	case http.MethodDelete:
		if err := store.RemoveUser(r.Context(), h.DB, u.ID); err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type profileResponse struct {
	domain.User
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

func orEmptyTransactions(ts []domain.Transaction) []domain.Transaction {
	if ts == nil {
		return []domain.Transaction{}
	}
	return ts
}

func (h UserHandler) updateProfile(w http.ResponseWriter, r *http.Request, u domain.User) {
	var patch map[string]json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		fieldError(w, 400, "Invalid update key")
		return
	}
	for _, key := range []string{"_id", "password", "bookings", "reviews", "listings", "rating"} {
		if _, found := patch[key]; found {
			fieldError(w, 400, "Cannot update "+key)
			return
		}
	}

	merged, err := applyPatch(u, patch, "Update value has invalid type")
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	merged.PasswordHash = u.PasswordHash

	if err := store.SaveUser(r.Context(), h.DB, merged); err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{})
}

// Get handles GET /user/{id}: another user's public view, with payment
// details redacted. No auth required.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/user/")
	u, err := store.GetUser(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Invalid user id")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	u.PaymentDetails = nil
	writeJSON(w, u)
}

// Analytics handles GET /user/analytics for the authenticated provider.
func (h UserHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	listings, err := store.ListingsByProvider(r.Context(), h.DB, userID)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	bookingsByListing := make(map[string][]domain.Booking, len(listings))
	for _, l := range listings {
		bkns, err := store.BookingsForListing(r.Context(), h.DB, l.ID)
		if err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		bookingsByListing[l.ID] = bkns
	}

	report, err := analytics.Build(listings, bookingsByListing)
	if err != nil {
		WriteError(w, r, 500, "analytics_error", err.Error())
		return
	}
	writeJSON(w, report)
}
