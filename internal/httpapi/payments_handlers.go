package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/events"
	"sfcars-engine/internal/inbox"
	"sfcars-engine/internal/store"
)

type PaymentsHandler struct {
	DB     *sql.DB
	Hub    *events.Hub
	CfgVal *atomic.Value // stores config.Config
}

type payRequest struct {
	BillID    *string `json:"bill_id"`
	UseWallet *bool   `json:"use_wallet"`
}

type walletRequest struct {
	UserID *string  `json:"user_id"`
	Amount *float64 `json:"amt"`
}

type billRequest struct {
	BookingID *string `json:"booking_id"`
}

// Pay settles a bill from the caller's wallet or a direct charge. The service
// fee comes off the top and the remainder lands in the provider's wallet.
func (h PaymentsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	payee, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req payRequest
	if err := decodeBody(r, &req); err != nil || req.BillID == nil {
		fieldError(w, 400, "Valid booking id is required")
		return
	}
	if req.UseWallet == nil {
		fieldError(w, 400, "Valid payment option is required")
		return
	}

	bill, err := store.GetBill(r.Context(), h.DB, *req.BillID)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Valid booking id is required")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	bkn, err := store.GetBooking(r.Context(), h.DB, bill.BookingID)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if bkn.Consumer != payee.ID {
		fieldError(w, http.StatusUnauthorized, "Incorrect user is paying")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	res, err := store.PayBill(r.Context(), h.DB, bill.ID, payee.ID, *req.UseWallet,
		cfg.Payments.ServiceFeePct, cfg.Payments.HouseAccount)
	if errors.Is(err, store.ErrInsufficientBalance) {
		fieldError(w, 400, "Wallet does not have enough balance")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	h.sendReceipts(r, payee, bkn, bill)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypePaymentReceived, 1,
		map[string]any{"bill_id": bill.ID, "amount_received": res.AmountReceived}))
	writeJSON(w, res)
}

// TopUp handles POST /wallet/top-up.
func (h PaymentsHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, false)
}

// Withdraw handles POST /wallet/withdraw.
func (h PaymentsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, true)
}

func (h PaymentsHandler) adjust(w http.ResponseWriter, r *http.Request, withdraw bool) {
	if _, ok := h.caller(w, r); !ok {
		return
	}

	var req walletRequest
	if err := decodeBody(r, &req); err != nil || req.UserID == nil {
		fieldError(w, 400, "Valid user id is required")
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		fieldError(w, 400, "Valid amount is required")
		return
	}

	var err error
	if withdraw {
		err = store.Withdraw(r.Context(), h.DB, *req.UserID, *req.Amount)
	} else {
		err = store.TopUp(r.Context(), h.DB, *req.UserID, *req.Amount)
	}
	if errors.Is(err, store.ErrInsufficientBalance) {
		fieldError(w, 400, "Wallet does not have enough balance")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{})
}

// Bill handles POST /bill: issues bills for the caller's unpaid one-off
// bookings.
func (h PaymentsHandler) Bill(w http.ResponseWriter, r *http.Request) {
	payee, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req billRequest
	if err := decodeBody(r, &req); err != nil || req.BookingID == nil {
		fieldError(w, 400, "Valid booking is required")
		return
	}

	created, err := store.IssueBills(r.Context(), h.DB, payee.ID)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if created > 0 {
		reqID := RequestIDFrom(r.Context())
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeBillIssued, 1,
			map[string]any{"user_id": payee.ID, "count": created}))
	}
	writeJSON(w, map[string]any{})
}

func (h PaymentsHandler) caller(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, err := store.GetUser(r.Context(), h.DB, UserIDFrom(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "User does not exist in system")
		return domain.User{}, false
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return domain.User{}, false
	}
	return u, true
}

func (h PaymentsHandler) sendReceipts(r *http.Request, payee domain.User, bkn domain.Booking, bill domain.Bill) {
	now := time.Now().Format(domain.BookingTimeLayout)

	receipt := inbox.PaymentReceipt(payee, bill.ID, now, bkn.Price)
	_ = store.CreateMessage(r.Context(), h.DB, &receipt)

	listing, err := store.GetListing(r.Context(), h.DB, bkn.ListingID)
	if err != nil {
		return
	}
	provider, err := store.GetUser(r.Context(), h.DB, listing.Provider)
	if err != nil {
		return
	}
	received := inbox.PaymentReceived(provider, bill.ID, now, bkn.Price)
	_ = store.CreateMessage(r.Context(), h.DB, &received)
}
