package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

const listingCols = `id, provider, address, hourly_rate, monthly_rate, listing_type,
  max_vehicle_size, description, access_type, photos, instructions,
  electric_charging, availability, rating`

func CreateListing(ctx context.Context, db *sql.DB, l domain.Listing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	address, _ := json.Marshal(l.Address)
	photos, _ := json.Marshal(orEmpty(l.Photos))
	availability, _ := json.Marshal(l.Availability)

	_, err := db.ExecContext(ctx, `
INSERT INTO listings(`+listingCols+`)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		l.ID, l.Provider, string(address), l.HourlyRate, l.MonthlyRate,
		l.ListingType, l.MaxVehicleSize, l.Description, l.AccessType,
		string(photos), l.Instructions, l.ElectricCharging,
		string(availability), l.Rating)
	if err != nil {
		return "", err
	}
	return l.ID, nil
}

func GetListing(ctx context.Context, db *sql.DB, id string) (domain.Listing, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+listingCols+` FROM listings WHERE id = ?;`, id)
	if err != nil {
		return domain.Listing{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Listing{}, err
		}
		return domain.Listing{}, ErrNotFound
	}
	return scanListing(rows)
}

func AllListings(ctx context.Context, db *sql.DB) ([]domain.Listing, error) {
	return queryListings(ctx, db, `SELECT `+listingCols+` FROM listings ORDER BY rowid;`)
}

func ListingsByProvider(ctx context.Context, db *sql.DB, provider string) ([]domain.Listing, error) {
	return queryListings(ctx, db, `SELECT `+listingCols+` FROM listings WHERE provider = ? ORDER BY rowid;`, provider)
}

func SaveListing(ctx context.Context, db *sql.DB, l domain.Listing) error {
	address, _ := json.Marshal(l.Address)
	photos, _ := json.Marshal(orEmpty(l.Photos))
	availability, _ := json.Marshal(l.Availability)

	res, err := db.ExecContext(ctx, `
UPDATE listings SET provider=?, address=?, hourly_rate=?, monthly_rate=?,
  listing_type=?, max_vehicle_size=?, description=?, access_type=?, photos=?,
  instructions=?, electric_charging=?, availability=?, rating=?
WHERE id=?;`,
		l.Provider, string(address), l.HourlyRate, l.MonthlyRate, l.ListingType,
		l.MaxVehicleSize, l.Description, l.AccessType, string(photos),
		l.Instructions, l.ElectricCharging, string(availability), l.Rating, l.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func RemoveListing(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?;`, id)
	return err
}

func queryListings(ctx context.Context, db *sql.DB, q string, args ...any) ([]domain.Listing, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanListing(rows *sql.Rows) (domain.Listing, error) {
	var l domain.Listing
	var address, photos, availability string
	err := rows.Scan(&l.ID, &l.Provider, &address, &l.HourlyRate, &l.MonthlyRate,
		&l.ListingType, &l.MaxVehicleSize, &l.Description, &l.AccessType,
		&photos, &l.Instructions, &l.ElectricCharging, &availability, &l.Rating)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal([]byte(address), &l.Address); err != nil {
		return l, errors.New("store: corrupt address json for listing " + l.ID)
	}
	_ = json.Unmarshal([]byte(photos), &l.Photos)
	if err := json.Unmarshal([]byte(availability), &l.Availability); err != nil {
		return l, errors.New("store: corrupt availability json for listing " + l.ID)
	}
	return l, nil
}
