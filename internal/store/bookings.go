package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

const bookingCols = `id, consumer, listing_id, start_time, end_time, price, recurring, paid`

func CreateBooking(ctx context.Context, db *sql.DB, b domain.Booking) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO bookings(`+bookingCols+`) VALUES(?,?,?,?,?,?,?,?);`,
		b.ID, b.Consumer, b.ListingID, b.StartTime, b.EndTime, b.Price,
		b.Recurring, boolInt(b.Paid))
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

func GetBooking(ctx context.Context, db *sql.DB, id string) (domain.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ?;`, id)
	b, err := scanBooking(row.Scan)
	if err != nil {
		return b, err
	}
	b.Exclusions, err = exclusionIDs(ctx, db, id)
	return b, err
}

func SaveBooking(ctx context.Context, db *sql.DB, b domain.Booking) error {
	res, err := db.ExecContext(ctx, `
UPDATE bookings SET consumer=?, listing_id=?, start_time=?, end_time=?, price=?, recurring=?, paid=?
WHERE id=?;`,
		b.Consumer, b.ListingID, b.StartTime, b.EndTime, b.Price, b.Recurring,
		boolInt(b.Paid), b.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func DeleteBooking(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM exclusions WHERE parent_id = ?;`, id); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?;`, id)
	return err
}

func CompletedBookings(ctx context.Context, db *sql.DB, consumer, now string) ([]domain.Booking, error) {
	return queryBookings(ctx, db, `
SELECT `+bookingCols+` FROM bookings WHERE consumer = ? AND end_time < ? ORDER BY rowid;`, consumer, now)
}

func BookingsForListing(ctx context.Context, db *sql.DB, listingID string) ([]domain.Booking, error) {
	return queryBookings(ctx, db, `
SELECT `+bookingCols+` FROM bookings WHERE listing_id = ? ORDER BY start_time;`, listingID)
}

func UnpaidOneOffBookings(ctx context.Context, db *sql.DB, consumer string) ([]domain.Booking, error) {
	return queryBookings(ctx, db, `
SELECT `+bookingCols+` FROM bookings WHERE consumer = ? AND paid = 0 AND recurring = '' ORDER BY rowid;`, consumer)
}

// AddExclusion cancels a single occurrence out of a recurring series.
func AddExclusion(ctx context.Context, db *sql.DB, parentID, start, end string) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
INSERT INTO exclusions(id, parent_id, start_time, end_time) VALUES(?,?,?,?);`,
		id, parentID, start, end)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ExclusionsFor returns the cancelled occurrences of a series as bare
// intervals for the conflict check.
func ExclusionsFor(ctx context.Context, db *sql.DB, parentID string) ([]domain.Booking, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, start_time, end_time FROM exclusions WHERE parent_id = ?;`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func exclusionIDs(ctx context.Context, db *sql.DB, parentID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM exclusions WHERE parent_id = ?;`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func queryBookings(ctx context.Context, db *sql.DB, q string, args ...any) ([]domain.Booking, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(scan func(...any) error) (domain.Booking, error) {
	var b domain.Booking
	var paid int
	err := scan(&b.ID, &b.Consumer, &b.ListingID, &b.StartTime, &b.EndTime,
		&b.Price, &b.Recurring, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	b.Paid = paid != 0
	return b, nil
}
