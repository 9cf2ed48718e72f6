package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/events"
	"sfcars-engine/internal/store"
)

func newTestAPI(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	var cfg config.Config
	cfg.App.Port = 38472
	cfg.Payments.ServiceFeePct = 0.15
	cfg.Payments.HouseAccount = "house"
	cfg.Billing.SweepSeconds = 300
	cfg.Search.DefaultSort = "price"

	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	mux := NewMux(Deps{
		DB:        db,
		Hub:       events.NewHub(),
		CfgVal:    &cfgVal,
		JWTSecret: []byte("test-secret"),
	})
	return Chain(mux, RequestID, Recover), db
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func errMsg(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, w)["error"]
}

func register(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":        email,
		"password":     "Str0ng!pass",
		"first_name":   "Jane",
		"last_name":    "Doe",
		"phone_number": "0412345678",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	return decode[map[string]string](t, w)["token"]
}

func listingPayload(hourly float64) map[string]any {
	return map[string]any{
		"address": map[string]any{
			"formatted_address": "1 Test St, Sydney NSW 2000",
			"street_number":     "1",
			"street":            "Test St",
			"city":              "Sydney",
			"lat":               -33.8688,
			"lng":               151.2093,
		},
		"hourly_rate":       hourly,
		"listing_type":      "driveway",
		"max_vehicle_size":  "SUV",
		"description":       "Secure driveway close to the station",
		"access_type":       "none",
		"photos":            []string{"photo1.png"},
		"instructions":      "Park behind the gate",
		"electric_charging": "no",
		"availability": map[string]any{
			"is_24_7": true,
		},
	}
}

func createListing(t *testing.T, h http.Handler, token string, hourly float64) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/listings/new", token, listingPayload(hourly))
	require.Equal(t, 200, w.Code, w.Body.String())
	return decode[map[string]string](t, w)["listing_id"]
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestAPI(t)

	w := do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "not-an-email",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Email is required", errMsg(t, w))

	w = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    "jane@example.com",
		"password": "short",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Password must have at least one Uppercase Character", errMsg(t, w))

	w = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":      "jane@example.com",
		"password":   "Str0ng!pass",
		"first_name": "Jane",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Name is required", errMsg(t, w))

	w = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":        "jane@example.com",
		"password":     "Str0ng!pass",
		"first_name":   "Jane",
		"last_name":    "Doe",
		"phone_number": "12345",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Phone number is required", errMsg(t, w))

	register(t, h, "jane@example.com")
	w = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":        "jane@example.com",
		"password":     "Str0ng!pass",
		"first_name":   "Jane",
		"last_name":    "Doe",
		"phone_number": "0412345678",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Email already registered", errMsg(t, w))
}

func TestLogin(t *testing.T) {
	h, _ := newTestAPI(t)
	register(t, h, "jane@example.com")

	w := do(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "Str0ng!pass",
	})
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["token"])

	w = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid email or password", errMsg(t, w))
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestAPI(t)

	for _, path := range []string{"/listings/new", "/listings/book", "/pay"} {
		w := do(t, h, http.MethodPost, path, "", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := do(t, h, http.MethodGet, "/inbox", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListingLifecycle(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	other := register(t, h, "other@example.com")

	id := createListing(t, h, owner, 10)

	w := do(t, h, http.MethodGet, "/listings", "", nil)
	require.Equal(t, 200, w.Code)
	all := decode[map[string][]map[string]any](t, w)["listings"]
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0]["_id"])

	// rating is immutable
	w = do(t, h, http.MethodPut, "/listings/"+id, owner, map[string]any{"rating": 5})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Cannot update rating", errMsg(t, w))

	// unknown key
	w = do(t, h, http.MethodPut, "/listings/"+id, owner, map[string]any{"bogus": 1})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid update key", errMsg(t, w))

	// wrong type
	w = do(t, h, http.MethodPut, "/listings/"+id, owner, map[string]any{"description": 42})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Update value has invalid type", errMsg(t, w))

	// owner can update
	w = do(t, h, http.MethodPut, "/listings/"+id, owner, map[string]any{"description": "Updated"})
	assert.Equal(t, 200, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/listings/"+id, "", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "Updated", decode[map[string]any](t, w)["description"])

	// non-owner cannot delete
	w = do(t, h, http.MethodDelete, "/listings/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodDelete, "/listings/"+id, owner, nil)
	assert.Equal(t, 200, w.Code)

	w = do(t, h, http.MethodGet, "/listings/"+id, "", nil)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid listing id", errMsg(t, w))
}

func TestListingValidationOrder(t *testing.T) {
	h, _ := newTestAPI(t)
	token := register(t, h, "owner@example.com")

	payload := listingPayload(10)
	delete(payload, "address")
	w := do(t, h, http.MethodPost, "/listings/new", token, payload)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Valid address is required", errMsg(t, w))

	payload = listingPayload(10)
	delete(payload, "hourly_rate")
	w = do(t, h, http.MethodPost, "/listings/new", token, payload)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Valid rate is required", errMsg(t, w))

	payload = listingPayload(10)
	payload["availability"] = map[string]any{
		"is_24_7":        false,
		"start_time":     "17:00",
		"end_time":       "09:00",
		"available_days": map[string]bool{"monday": true},
	}
	w = do(t, h, http.MethodPost, "/listings/new", token, payload)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Availability end time must be after start time", errMsg(t, w))
}

func TestSearch(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	cheap := createListing(t, h, owner, 5)
	dear := createListing(t, h, owner, 15)

	w := do(t, h, http.MethodGet,
		"/listings/search?mode=casual&start_date=2030-01-10&end_date=2030-01-10&start_hour=9&end_hour=17&sort=price", "", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	results := decode[map[string][]map[string]any](t, w)["listings"]
	require.Len(t, results, 2)
	assert.Equal(t, cheap, results[0]["_id"])
	assert.Equal(t, dear, results[1]["_id"])

	// nothing offers monthly
	w = do(t, h, http.MethodGet,
		"/listings/search?mode=monthly&start_date=2030-01-10&end_date=2030-02-10", "", nil)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode[map[string][]map[string]any](t, w)["listings"])
}

func TestQuote(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	id := createListing(t, h, owner, 10)

	w := do(t, h, http.MethodGet,
		"/listings/"+id+"/quote?start_date=2030-01-10&end_date=2030-01-11&start_hour=9&end_hour=17", "", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.InDelta(t, 320.0, decode[map[string]float64](t, w)["price"], 1e-9)

	// window wraps past midnight
	w = do(t, h, http.MethodGet,
		"/listings/"+id+"/quote?start_date=2030-01-10&end_date=2030-01-11&start_hour=22&end_hour=6", "", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.InDelta(t, 80.0, decode[map[string]float64](t, w)["price"], 1e-9)

	w = do(t, h, http.MethodGet, "/listings/"+id+"/quote?mode=monthly", "", nil)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Valid rate is required", errMsg(t, w))
}

func TestBookingFlow(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	consumer := register(t, h, "consumer@example.com")
	id := createListing(t, h, owner, 10)

	book := map[string]any{
		"listing_id": id,
		"start_time": "2030-01-10T09:00:00",
		"end_time":   "2030-01-10T17:00:00",
		"price":      80.0,
		"recurring":  "",
	}

	// owner cannot book their own listing
	w := do(t, h, http.MethodPost, "/listings/book", owner, book)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "User cannot book their own listing", errMsg(t, w))

	w = do(t, h, http.MethodPost, "/listings/book", consumer, book)
	require.Equal(t, 200, w.Code, w.Body.String())
	bookingID := decode[map[string]string](t, w)["booking_id"]
	require.NotEmpty(t, bookingID)

	// overlapping slot is rejected
	w = do(t, h, http.MethodPost, "/listings/book", consumer, map[string]any{
		"listing_id": id,
		"start_time": "2030-01-10T12:00:00",
		"end_time":   "2030-01-10T14:00:00",
		"price":      20.0,
		"recurring":  "",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid time slot", errMsg(t, w))

	// both sides got an inbox message
	w = do(t, h, http.MethodGet, "/inbox", consumer, nil)
	require.Equal(t, 200, w.Code)
	inboxMsgs := decode[[]map[string]any](t, w)
	require.Len(t, inboxMsgs, 1)
	assert.Contains(t, inboxMsgs[0]["subject"], "Booking Confirmation")

	w = do(t, h, http.MethodGet, "/inbox", owner, nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	// future booking is not completed yet
	w = do(t, h, http.MethodGet, "/profile/completed-bookings", consumer, nil)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))

	// cancel frees the slot
	w = do(t, h, http.MethodDelete, "/bookings/"+bookingID, consumer, map[string]any{"type": ""})
	require.Equal(t, 200, w.Code)

	w = do(t, h, http.MethodPost, "/listings/book", consumer, book)
	assert.Equal(t, 200, w.Code, w.Body.String())
}

func TestRecurringBookingConflicts(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	consumer := register(t, h, "consumer@example.com")
	rival := register(t, h, "rival@example.com")
	id := createListing(t, h, owner, 10)

	w := do(t, h, http.MethodPost, "/listings/book", consumer, map[string]any{
		"listing_id": id,
		"start_time": "2030-01-07T09:00:00",
		"end_time":   "2030-01-07T17:00:00",
		"price":      80.0,
		"recurring":  "weekly",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	seriesID := decode[map[string]string](t, w)["booking_id"]

	// two weeks later still collides
	w = do(t, h, http.MethodPost, "/listings/book", rival, map[string]any{
		"listing_id": id,
		"start_time": "2030-01-21T10:00:00",
		"end_time":   "2030-01-21T12:00:00",
		"price":      20.0,
		"recurring":  "",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid time slot", errMsg(t, w))

	// cancelling that single occurrence frees it
	w = do(t, h, http.MethodDelete, "/bookings/"+seriesID, consumer, map[string]any{
		"type":       "single",
		"start_time": "2030-01-21T09:00:00",
		"end_time":   "2030-01-21T17:00:00",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/listings/book", rival, map[string]any{
		"listing_id": id,
		"start_time": "2030-01-21T10:00:00",
		"end_time":   "2030-01-21T12:00:00",
		"price":      20.0,
		"recurring":  "",
	})
	assert.Equal(t, 200, w.Code, w.Body.String())
}

func TestPaymentsFlow(t *testing.T) {
	h, db := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	consumer := register(t, h, "consumer@example.com")
	id := createListing(t, h, owner, 10)

	// completed one-off booking
	w := do(t, h, http.MethodPost, "/listings/book", consumer, map[string]any{
		"listing_id": id,
		"start_time": "2020-01-10T09:00:00",
		"end_time":   "2020-01-10T17:00:00",
		"price":      80.0,
		"recurring":  "",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	bookingID := decode[map[string]string](t, w)["booking_id"]

	w = do(t, h, http.MethodPost, "/bill", consumer, map[string]any{"booking_id": bookingID})
	require.Equal(t, 200, w.Code, w.Body.String())

	consumerUser, err := store.GetUserByEmail(t.Context(), db, "consumer@example.com")
	require.NoError(t, err)
	bills, err := store.BillsForUser(t.Context(), db, consumerUser.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.False(t, bills[0].Paid)

	// billing is idempotent
	w = do(t, h, http.MethodPost, "/bill", consumer, map[string]any{"booking_id": bookingID})
	require.Equal(t, 200, w.Code)
	bills, err = store.BillsForUser(t.Context(), db, consumerUser.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)

	// wallet payment needs a balance
	w = do(t, h, http.MethodPost, "/pay", consumer, map[string]any{
		"bill_id": bills[0].ID, "use_wallet": true,
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Wallet does not have enough balance", errMsg(t, w))

	w = do(t, h, http.MethodPost, "/wallet/top-up", consumer, map[string]any{
		"user_id": consumerUser.ID, "amt": 100.0,
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/pay", consumer, map[string]any{
		"bill_id": bills[0].ID, "use_wallet": true,
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	res := decode[map[string]float64](t, w)
	assert.InDelta(t, 68.0, res["amount_received"], 1e-9)

	consumerUser, err = store.GetUserByEmail(t.Context(), db, "consumer@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, consumerUser.Wallet, 1e-9)

	ownerUser, err := store.GetUserByEmail(t.Context(), db, "owner@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 68.0, ownerUser.Wallet, 1e-9)
	assert.InDelta(t, 68.0, ownerUser.Revenue, 1e-9)

	house, err := store.HouseBalance(t.Context(), db, "house")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, house, 1e-9)

	// transaction history shows the top-up and the payment
	w = do(t, h, http.MethodGet, "/user/profile", consumer, nil)
	require.Equal(t, 200, w.Code)
	prof := decode[map[string]any](t, w)
	history := prof["recent_transactions"].([]any)
	require.Len(t, history, 2)
	amounts := make(map[float64]bool, len(history))
	for _, item := range history {
		amounts[item.(map[string]any)["amount"].(float64)] = true
	}
	assert.True(t, amounts[100.0])
	assert.True(t, amounts[-80.0])

	// withdraw more than the balance
	w = do(t, h, http.MethodPost, "/wallet/withdraw", consumer, map[string]any{
		"user_id": consumerUser.ID, "amt": 1000.0,
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Wallet does not have enough balance", errMsg(t, w))
}

func TestReviewFlow(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	consumer := register(t, h, "consumer@example.com")
	id := createListing(t, h, owner, 10)

	w := do(t, h, http.MethodPost, "/listings/book", consumer, map[string]any{
		"listing_id": id,
		"start_time": "2020-01-10T09:00:00",
		"end_time":   "2020-01-10T17:00:00",
		"price":      80.0,
		"recurring":  "",
	})
	require.Equal(t, 200, w.Code)
	bookingID := decode[map[string]string](t, w)["booking_id"]

	reviewPath := fmt.Sprintf("/bookings/%s/review", bookingID)

	w = do(t, h, http.MethodGet, reviewPath, consumer, nil)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Review does not exist", errMsg(t, w))

	w = do(t, h, http.MethodPost, reviewPath, consumer, map[string]any{
		"rating": 4.0, "message": "Easy access",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, reviewPath, consumer, map[string]any{
		"rating": 5.0, "message": "Again",
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Review already exists", errMsg(t, w))

	// rating feeds the listing average
	w = do(t, h, http.MethodGet, "/listings/"+id, "", nil)
	require.Equal(t, 200, w.Code)
	listing := decode[map[string]any](t, w)
	assert.Equal(t, 4.0, listing["rating"])

	// immutable review fields
	w = do(t, h, http.MethodPut, reviewPath, consumer, map[string]any{"name": "X"})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Cannot update name", errMsg(t, w))

	w = do(t, h, http.MethodPut, reviewPath, consumer, map[string]any{"rating": 2.0})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/listings/"+id, "", nil)
	listing = decode[map[string]any](t, w)
	assert.Equal(t, 2.0, listing["rating"])
}

func TestProfile(t *testing.T) {
	h, _ := newTestAPI(t)
	token := register(t, h, "jane@example.com")

	w := do(t, h, http.MethodGet, "/user/profile", token, nil)
	require.Equal(t, 200, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "jane@example.com", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "password_hash")
	userID := profile["_id"].(string)

	w = do(t, h, http.MethodPut, "/user/profile", token, map[string]any{"rating": 5})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Cannot update rating", errMsg(t, w))

	w = do(t, h, http.MethodPut, "/user/profile", token, map[string]any{"first_name": "Janet"})
	require.Equal(t, 200, w.Code, w.Body.String())

	// public view redacts payment details
	w = do(t, h, http.MethodGet, "/user/"+userID, "", nil)
	require.Equal(t, 200, w.Code)
	public := decode[map[string]any](t, w)
	assert.Equal(t, "Janet", public["first_name"])
	assert.Nil(t, public["payment_details"])
}

func TestAnalytics(t *testing.T) {
	h, _ := newTestAPI(t)
	owner := register(t, h, "owner@example.com")
	consumer := register(t, h, "consumer@example.com")
	id := createListing(t, h, owner, 10)

	for _, span := range [][2]string{
		{"2030-01-10T09:00:00", "2030-01-10T17:00:00"},
		{"2030-01-12T09:00:00", "2030-01-12T17:00:00"},
		{"2030-02-01T09:00:00", "2030-02-01T17:00:00"},
	} {
		w := do(t, h, http.MethodPost, "/listings/book", consumer, map[string]any{
			"listing_id": id,
			"start_time": span[0],
			"end_time":   span[1],
			"price":      80.0,
			"recurring":  "",
		})
		require.Equal(t, 200, w.Code, w.Body.String())
	}

	w := do(t, h, http.MethodGet, "/user/analytics", owner, nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	report := decode[map[string]any](t, w)
	assert.Equal(t, 3.0, report["total_bookings"])
	revenue := report["monthly_revenue"].([]any)
	require.Len(t, revenue, 2)
	first := revenue[0].(map[string]any)
	assert.Equal(t, 1.0, first["month"])
	assert.Equal(t, 160.0, first["revenue"])
}

func TestHealth(t *testing.T) {
	h, _ := newTestAPI(t)
	w := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, 200, w.Code)
	assert.True(t, decode[map[string]bool](t, w)["ok"])
}
