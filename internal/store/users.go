package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

var ErrNotFound = errors.New("store: not found")

func CreateUser(ctx context.Context, db *sql.DB, u domain.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	vehicles, _ := json.Marshal(orEmpty(u.VehicleDetails))
	cards, _ := json.Marshal(orEmpty(u.PaymentDetails))

	_, err := db.ExecContext(ctx, `
INSERT INTO users(id, email, password_hash, first_name, last_name, phone_number,
  vehicle_details, payment_details, is_admin, revenue, rating, pfp, wallet)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		string(vehicles), string(cards), boolInt(u.IsAdmin), u.Revenue,
		u.Rating, u.ProfilePicture, u.Wallet)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func GetUser(ctx context.Context, db *sql.DB, id string) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, `
SELECT id, email, password_hash, first_name, last_name, phone_number,
  vehicle_details, payment_details, is_admin, revenue, rating, pfp, wallet
FROM users WHERE id = ?;`, id))
}

// GetUserByCredentials resolves a login attempt; ErrNotFound covers both a
// missing account and a wrong password so callers can't tell them apart.
func GetUserByCredentials(ctx context.Context, db *sql.DB, email, passwordHash string) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, `
SELECT id, email, password_hash, first_name, last_name, phone_number,
  vehicle_details, payment_details, is_admin, revenue, rating, pfp, wallet
FROM users WHERE email = ? AND password_hash = ?;`, email, passwordHash))
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, `
SELECT id, email, password_hash, first_name, last_name, phone_number,
  vehicle_details, payment_details, is_admin, revenue, rating, pfp, wallet
FROM users WHERE email = ?;`, email))
}

func EmailTaken(ctx context.Context, db *sql.DB, email string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?;`, email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveUser writes every mutable column back.
func SaveUser(ctx context.Context, db *sql.DB, u domain.User) error {
	vehicles, _ := json.Marshal(orEmpty(u.VehicleDetails))
	cards, _ := json.Marshal(orEmpty(u.PaymentDetails))

	res, err := db.ExecContext(ctx, `
UPDATE users SET email=?, password_hash=?, first_name=?, last_name=?, phone_number=?,
  vehicle_details=?, payment_details=?, is_admin=?, revenue=?, rating=?, pfp=?, wallet=?
WHERE id=?;`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		string(vehicles), string(cards), boolInt(u.IsAdmin), u.Revenue,
		u.Rating, u.ProfilePicture, u.Wallet, u.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func RemoveUser(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?;`, id)
	return err
}

func RecentTransactions(ctx context.Context, db *sql.DB, userID string) ([]domain.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, user_id, listing_id, booking_id, amount, balance, timestamp
FROM transactions WHERE user_id = ? ORDER BY timestamp;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.ListingID, &t.BookingID, &t.Amount, &t.Balance, &t.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var vehicles, cards string
	var isAdmin int
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &vehicles, &cards, &isAdmin, &u.Revenue, &u.Rating,
		&u.ProfilePicture, &u.Wallet)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.IsAdmin = isAdmin != 0
	_ = json.Unmarshal([]byte(vehicles), &u.VehicleDetails)
	_ = json.Unmarshal([]byte(cards), &u.PaymentDetails)
	return u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
