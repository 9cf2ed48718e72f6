package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

// ErrInsufficientBalance is returned when a wallet cannot cover a payment
// or withdrawal.
var ErrInsufficientBalance = errors.New("store: wallet does not have enough balance")

func GetBill(ctx context.Context, db *sql.DB, id string) (domain.Bill, error) {
	var b domain.Bill
	var paid int
	err := db.QueryRowContext(ctx, `
SELECT id, user_id, booking_id, start_time, end_time, price, paid
FROM bills WHERE id = ?;`, id).Scan(&b.ID, &b.UserID, &b.BookingID,
		&b.StartTime, &b.EndTime, &b.Price, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	b.Paid = paid != 0
	return b, nil
}

func BillsForUser(ctx context.Context, db *sql.DB, userID string) ([]domain.Bill, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, user_id, booking_id, start_time, end_time, price, paid
FROM bills WHERE user_id = ? ORDER BY rowid;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		var b domain.Bill
		var paid int
		if err := rows.Scan(&b.ID, &b.UserID, &b.BookingID, &b.StartTime,
			&b.EndTime, &b.Price, &paid); err != nil {
			return nil, err
		}
		b.Paid = paid != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

// IssueBills creates a bill for each of the user's unpaid one-off bookings
// that is not already billed. Returns how many bills were created.
func IssueBills(ctx context.Context, db *sql.DB, userID string) (int, error) {
	bookings, err := UnpaidOneOffBookings(ctx, db, userID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, bkn := range bookings {
		var n int
		err := db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM bills WHERE booking_id = ? AND paid = 0;`, bkn.ID).Scan(&n)
		if err != nil {
			return created, err
		}
		if n > 0 {
			continue
		}
		_, err = db.ExecContext(ctx, `
INSERT INTO bills(id, user_id, booking_id, start_time, end_time, price, paid)
VALUES(?,?,?,?,?,?,0);`,
			uuid.NewString(), userID, bkn.ID, bkn.StartTime, bkn.EndTime, bkn.Price)
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// IssueAllBills runs the billing sweep across every consumer that has an
// unbilled one-off booking.
func IssueAllBills(ctx context.Context, db *sql.DB) (int, error) {
	rows, err := db.QueryContext(ctx, `
SELECT DISTINCT consumer FROM bookings WHERE paid = 0 AND recurring = '';`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var consumers []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return 0, err
		}
		consumers = append(consumers, c)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	total := 0
	for _, c := range consumers {
		n, err := IssueBills(ctx, db, c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// PruneOrphanBills drops unpaid bills whose booking was cancelled out from
// under them. Runs alongside the billing sweep.
func PruneOrphanBills(ctx context.Context, db *sql.DB) (int, error) {
	res, err := db.ExecContext(ctx, `
DELETE FROM bills WHERE paid = 0
  AND booking_id NOT IN (SELECT id FROM bookings);`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type PayResult struct {
	AmountReceived float64 `json:"amount_received"`
}

// PayBill settles a bill: debits the payee (wallet or mock direct debit),
// takes the service fee into the house account, credits the provider's
// wallet and revenue, marks the bill and booking paid, and records both
// sides' transactions. Everything happens in one transaction.
func PayBill(ctx context.Context, db *sql.DB, billID, payeeID string, useWallet bool, feePct float64, houseAccount string) (PayResult, error) {
	bill, err := GetBill(ctx, db, billID)
	if err != nil {
		return PayResult{}, err
	}
	bkn, err := GetBooking(ctx, db, bill.BookingID)
	if err != nil {
		return PayResult{}, err
	}
	listing, err := GetListing(ctx, db, bkn.ListingID)
	if err != nil {
		return PayResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return PayResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var wallet float64
	if err := tx.QueryRowContext(ctx, `SELECT wallet FROM users WHERE id = ?;`, payeeID).Scan(&wallet); err != nil {
		return PayResult{}, err
	}

	if useWallet {
		if wallet < bkn.Price {
			return PayResult{}, ErrInsufficientBalance
		}
		wallet -= bkn.Price
		if _, err := tx.ExecContext(ctx, `UPDATE users SET wallet = ? WHERE id = ?;`, wallet, payeeID); err != nil {
			return PayResult{}, err
		}
	}
	if err := insertTransaction(ctx, tx, domain.Transaction{
		UserID: payeeID, BookingID: bkn.ID, Amount: -bkn.Price, Balance: wallet,
	}); err != nil {
		return PayResult{}, err
	}

	fee := bkn.Price * feePct
	if _, err := tx.ExecContext(ctx, `
INSERT INTO accounts(name, balance) VALUES(?, ?)
ON CONFLICT(name) DO UPDATE SET balance = balance + excluded.balance;`,
		houseAccount, fee); err != nil {
		return PayResult{}, err
	}

	received := bkn.Price - fee
	if _, err := tx.ExecContext(ctx, `
UPDATE users SET wallet = wallet + ?, revenue = revenue + ? WHERE id = ?;`,
		received, received, listing.Provider); err != nil {
		return PayResult{}, err
	}

	var providerWallet float64
	if err := tx.QueryRowContext(ctx, `SELECT wallet FROM users WHERE id = ?;`, listing.Provider).Scan(&providerWallet); err != nil {
		return PayResult{}, err
	}
	if err := insertTransaction(ctx, tx, domain.Transaction{
		UserID: listing.Provider, ListingID: listing.ID, Amount: received, Balance: providerWallet,
	}); err != nil {
		return PayResult{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET paid = 1 WHERE id = ?;`, bkn.ID); err != nil {
		return PayResult{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bills SET paid = 1 WHERE id = ?;`, billID); err != nil {
		return PayResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return PayResult{}, err
	}
	return PayResult{AmountReceived: received}, nil
}

// TopUp credits a wallet and records the transaction.
func TopUp(ctx context.Context, db *sql.DB, userID string, amt float64) error {
	return adjustWallet(ctx, db, userID, amt)
}

// Withdraw debits a wallet, refusing to overdraw.
func Withdraw(ctx context.Context, db *sql.DB, userID string, amt float64) error {
	return adjustWallet(ctx, db, userID, -amt)
}

func adjustWallet(ctx context.Context, db *sql.DB, userID string, delta float64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var wallet float64
	err = tx.QueryRowContext(ctx, `SELECT wallet FROM users WHERE id = ?;`, userID).Scan(&wallet)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	wallet += delta
	if wallet < 0 {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET wallet = ? WHERE id = ?;`, wallet, userID); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, domain.Transaction{
		UserID: userID, Amount: delta, Balance: wallet,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t domain.Transaction) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO transactions(id, user_id, listing_id, booking_id, amount, balance, timestamp)
VALUES(?,?,?,?,?,?,?);`,
		uuid.NewString(), t.UserID, t.ListingID, t.BookingID, t.Amount, t.Balance,
		time.Now().Format(domain.BookingTimeLayout))
	return err
}

// HouseBalance reads the accrued service fees.
func HouseBalance(ctx context.Context, db *sql.DB, houseAccount string) (float64, error) {
	var bal float64
	err := db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE name = ?;`, houseAccount).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return bal, err
}
