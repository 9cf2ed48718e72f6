package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/events"
	"sfcars-engine/internal/pricing"
	"sfcars-engine/internal/search"
	"sfcars-engine/internal/store"
	"sfcars-engine/internal/wizard"
)

type ListingsHandler struct {
	DB     *sql.DB
	Hub    *events.Hub
	CfgVal *atomic.Value // stores config.Config
}

type newListingRequest struct {
	Address          *domain.Address      `json:"address"`
	HourlyRate       *float64             `json:"hourly_rate"`
	MonthlyRate      *float64             `json:"monthly_rate"`
	ListingType      *string              `json:"listing_type"`
	MaxVehicleSize   *string              `json:"max_vehicle_size"`
	Description      *string              `json:"description"`
	AccessType       *string              `json:"access_type"`
	Photos           *[]string            `json:"photos"`
	Instructions     *string              `json:"instructions"`
	ElectricCharging *string              `json:"electric_charging"`
	Availability     *domain.Availability `json:"availability"`
}

// List is public and embeds each listing's reviews.
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := store.AllListings(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	for i := range listings {
		reviews, err := store.ReviewsForListing(r.Context(), h.DB, listings[i].ID)
		if err != nil {
			WriteError(w, r, 500, "store_error", err.Error())
			return
		}
		listings[i].Reviews = reviews
	}
	writeJSON(w, map[string]any{"listings": listings})
}

// New validates the submitted fields in the order the listing wizard collects
// them, then assembles the draft step by step and persists the confirmed
// listing.
func (h ListingsHandler) New(w http.ResponseWriter, r *http.Request) {
	var req newListingRequest
	if err := decodeBody(r, &req); err != nil {
		fieldError(w, 400, "Valid address is required")
		return
	}

	if req.Address == nil {
		fieldError(w, 400, "Valid address is required")
		return
	}
	if req.HourlyRate == nil && req.MonthlyRate == nil {
		fieldError(w, 400, "Valid rate is required")
		return
	}
	if req.ListingType == nil {
		fieldError(w, 400, "Valid car space type is required")
		return
	}
	if req.MaxVehicleSize == nil {
		fieldError(w, 400, "Valid max vehicle size is required")
		return
	}
	if req.Description == nil {
		fieldError(w, 400, "Valid description is required")
		return
	}
	if req.AccessType == nil {
		fieldError(w, 400, "Valid access type is required")
		return
	}
	if req.Photos == nil {
		fieldError(w, 400, "Valid images are required")
		return
	}
	if req.Instructions == nil {
		fieldError(w, 400, "Valid instructions are required")
		return
	}
	if req.Availability == nil {
		fieldError(w, 400, "Valid availability is required")
		return
	}
	if req.ElectricCharging == nil {
		fieldError(w, 400, "Valid electric charging is required")
		return
	}

	d := wizard.New()
	steps := []func() error{
		func() error { return d.SetAddress(*req.Address) },
		func() error { return d.SetSpotDetails(*req.ListingType, *req.MaxVehicleSize, *req.AccessType) },
		func() error { return d.SetDescription(*req.Description, *req.Photos) },
		func() error { return d.SetPricing(req.HourlyRate, req.MonthlyRate, *req.Availability) },
		func() error { return d.SetFeatures(*req.ElectricCharging, *req.Instructions) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			fieldError(w, 400, err.Error())
			return
		}
	}
	listing, err := d.Confirm()
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	listing.Provider = UserIDFrom(r.Context())

	id, err := store.CreateListing(r.Context(), h.DB, listing)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeListingCreated, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]string{"listing_id": id})
}

// Get handles GET /listings/{id}, public.
func (h ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.fetch(w, r)
	if !ok {
		return
	}
	reviews, err := store.ReviewsForListing(r.Context(), h.DB, listing.ID)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	listing.Reviews = reviews
	writeJSON(w, listing)
}

// Update handles PUT /listings/{id}. Only the owner or an admin may update,
// and id and rating are immutable.
func (h ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.ownerOrAdmin(w, r, listing.Provider) {
		return
	}

	var patch map[string]json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		fieldError(w, 400, "Invalid update key")
		return
	}
	if _, ok := patch["_id"]; ok {
		fieldError(w, 400, "Cannot update id")
		return
	}
	if _, ok := patch["rating"]; ok {
		fieldError(w, 400, "Cannot update rating")
		return
	}

	merged, err := applyPatch(listing, patch, "Update value has invalid type")
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	if !merged.Casual() && !merged.Monthly() {
		fieldError(w, 400, "Valid rate is required")
		return
	}

	if err := store.SaveListing(r.Context(), h.DB, merged); err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{})
}

// Delete handles DELETE /listings/{id}, owner or admin only.
func (h ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.ownerOrAdmin(w, r, listing.Provider) {
		return
	}
	if err := store.RemoveListing(r.Context(), h.DB, listing.ID); err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeListingDeleted, 1, map[string]any{"id": listing.ID}))
	writeJSON(w, map[string]any{})
}

// Search runs the availability/mode filter and sort over all stored listings.
// Query params: mode, start_date, end_date, start_hour, end_hour, lat, lng,
// sort. Dates are "2006-01-02".
func (h ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window := search.Window{
		Mode: search.Mode(q.Get("mode")),
		Sort: search.SortKey(q.Get("sort")),
	}
	if window.Mode == "" {
		window.Mode = search.ModeCasual
	}
	if window.Sort == "" {
		window.Sort = search.SortKey(h.defaultSort())
	}

	var err error
	if window.StartDate, err = time.Parse("2006-01-02", q.Get("start_date")); err != nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	if window.EndDate, err = time.Parse("2006-01-02", q.Get("end_date")); err != nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}
	if window.Mode == search.ModeCasual {
		if window.StartHour, err = strconv.Atoi(q.Get("start_hour")); err != nil {
			fieldError(w, 400, "Valid starting time is required")
			return
		}
		if window.EndHour, err = strconv.Atoi(q.Get("end_hour")); err != nil {
			fieldError(w, 400, "Valid end time is required")
			return
		}
	}
	if latStr, lngStr := q.Get("lat"), q.Get("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			fieldError(w, 400, "Valid address is required")
			return
		}
		window.Reference = &search.Point{Lat: lat, Lng: lng}
	}
	if window.Reference == nil && window.Sort == search.SortDistance {
		window.Sort = search.SortPrice
	}

	candidates, err := store.AllListings(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	results, err := search.Search(candidates, window)
	if err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	writeJSON(w, map[string]any{"listings": orEmptyListings(results)})
}

// Quote handles GET /listings/{id}/quote: the server-computed price for a
// prospective booking window. Same query params as Search minus sort.
func (h ListingsHandler) Quote(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.fetch(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	mode := q.Get("mode")
	if mode == "" {
		mode = string(search.ModeCasual)
	}

	if mode == string(search.ModeMonthly) {
		if !listing.Monthly() {
			fieldError(w, 400, "Valid rate is required")
			return
		}
		writeJSON(w, map[string]float64{"price": pricing.MonthlyTotal(*listing.MonthlyRate)})
		return
	}

	if !listing.Casual() {
		fieldError(w, 400, "Valid rate is required")
		return
	}
	startDate, err := time.Parse("2006-01-02", q.Get("start_date"))
	if err != nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	endDate, err := time.Parse("2006-01-02", q.Get("end_date"))
	if err != nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}
	startHour, err := strconv.Atoi(q.Get("start_hour"))
	if err != nil {
		fieldError(w, 400, "Valid starting time is required")
		return
	}
	endHour, err := strconv.Atoi(q.Get("end_hour"))
	if err != nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}

	total, err := pricing.CasualTotal(*listing.HourlyRate, startDate, endDate, startHour, endHour)
	if err != nil {
		fieldError(w, 400, "Valid end time is required")
		return
	}
	writeJSON(w, map[string]float64{"price": total})
}

func (h ListingsHandler) fetch(w http.ResponseWriter, r *http.Request) (domain.Listing, bool) {
	id := pathTail(r.URL.Path, "/listings/")
	listing, err := store.GetListing(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Invalid listing id")
		return domain.Listing{}, false
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return domain.Listing{}, false
	}
	return listing, true
}

func (h ListingsHandler) ownerOrAdmin(w http.ResponseWriter, r *http.Request, owner string) bool {
	userID := UserIDFrom(r.Context())
	if userID == owner {
		return true
	}
	u, err := store.GetUser(r.Context(), h.DB, userID)
	if err != nil || !u.IsAdmin {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return false
	}
	return true
}

func (h ListingsHandler) defaultSort() string {
	cfg := h.CfgVal.Load().(config.Config)
	if cfg.Search.DefaultSort != "" {
		return cfg.Search.DefaultSort
	}
	return string(search.SortDistance)
}

func pathTail(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func orEmptyListings(xs []domain.Listing) []domain.Listing {
	if xs == nil {
		return []domain.Listing{}
	}
	return xs
}
