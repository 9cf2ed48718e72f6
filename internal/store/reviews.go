package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

const reviewCols = `id, user_id, booking_id, listing_id, name, rating, message, timestamp`

// CreateReview inserts the review and refreshes the listing's average
// rating plus the provider's across-listings rating.
func CreateReview(ctx context.Context, db *sql.DB, r domain.Review) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp == "" {
		r.Timestamp = time.Now().Format(domain.BookingTimeLayout)
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO reviews(`+reviewCols+`) VALUES(?,?,?,?,?,?,?,?);`,
		r.ID, r.UserID, r.BookingID, r.ListingID, r.Name, r.Rating, r.Message, r.Timestamp)
	if err != nil {
		return "", err
	}
	if err := refreshRatings(ctx, db, r.ListingID); err != nil {
		return "", err
	}
	return r.ID, nil
}

func GetReviewByBooking(ctx context.Context, db *sql.DB, bookingID string) (domain.Review, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reviewCols+` FROM reviews WHERE booking_id = ?;`, bookingID)
	return scanReview(row.Scan)
}

func SaveReview(ctx context.Context, db *sql.DB, r domain.Review) error {
	r.Timestamp = time.Now().Format(domain.BookingTimeLayout)
	res, err := db.ExecContext(ctx, `
UPDATE reviews SET rating=?, message=?, timestamp=? WHERE id=?;`,
		r.Rating, r.Message, r.Timestamp, r.ID)
	if err != nil {
		return err
	}
	if err := mustAffect(res); err != nil {
		return err
	}
	return refreshRatings(ctx, db, r.ListingID)
}

func DeleteReview(ctx context.Context, db *sql.DB, id, listingID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?;`, id); err != nil {
		return err
	}
	return refreshRatings(ctx, db, listingID)
}

func ReviewsForListing(ctx context.Context, db *sql.DB, listingID string) ([]domain.Review, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+reviewCols+` FROM reviews WHERE listing_id = ? ORDER BY timestamp;`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		r, err := scanReview(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// refreshRatings recomputes the listing average and then the provider's
// average across all their rated listings.
func refreshRatings(ctx context.Context, db *sql.DB, listingID string) error {
	var avg sql.NullFloat64
	if err := db.QueryRowContext(ctx,
		`SELECT AVG(rating) FROM reviews WHERE listing_id = ?;`, listingID).Scan(&avg); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE listings SET rating = ? WHERE id = ?;`, nullable(avg), listingID); err != nil {
		return err
	}

	var provider string
	err := db.QueryRowContext(ctx, `SELECT provider FROM listings WHERE id = ?;`, listingID).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	var userAvg sql.NullFloat64
	if err := db.QueryRowContext(ctx,
		`SELECT AVG(rating) FROM listings WHERE provider = ? AND rating IS NOT NULL;`, provider).Scan(&userAvg); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE users SET rating = ? WHERE id = ?;`, nullable(userAvg), provider)
	return err
}

func nullable(v sql.NullFloat64) any {
	if v.Valid {
		return v.Float64
	}
	return nil
}

func scanReview(scan func(...any) error) (domain.Review, error) {
	var r domain.Review
	err := scan(&r.ID, &r.UserID, &r.BookingID, &r.ListingID, &r.Name, &r.Rating, &r.Message, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}
