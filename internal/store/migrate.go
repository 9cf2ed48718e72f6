package store

import "database/sql"

// Migrate brings the schema to the current version. Versioning rides on
// PRAGMA user_version so re-running is a no-op.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone_number TEXT NOT NULL,
  vehicle_details TEXT NOT NULL DEFAULT '[]',
  payment_details TEXT NOT NULL DEFAULT '[]',
  is_admin INTEGER NOT NULL DEFAULT 0,
  revenue REAL NOT NULL DEFAULT 0,
  rating REAL,
  pfp TEXT NOT NULL DEFAULT '',
  wallet REAL NOT NULL DEFAULT 0
);`,
		`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  provider TEXT NOT NULL,
  address TEXT NOT NULL,
  hourly_rate REAL,
  monthly_rate REAL,
  listing_type TEXT NOT NULL,
  max_vehicle_size TEXT NOT NULL,
  description TEXT NOT NULL,
  access_type TEXT NOT NULL,
  photos TEXT NOT NULL DEFAULT '[]',
  instructions TEXT NOT NULL,
  electric_charging TEXT NOT NULL,
  availability TEXT NOT NULL,
  rating REAL
);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_provider ON listings(provider);`,
		`CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  consumer TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  price REAL NOT NULL,
  recurring TEXT NOT NULL DEFAULT '',
  paid INTEGER NOT NULL DEFAULT 0
);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_consumer ON bookings(consumer);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_listing ON bookings(listing_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_end_time ON bookings(end_time);`,
		`CREATE TABLE IF NOT EXISTS exclusions (
  id TEXT PRIMARY KEY,
  parent_id TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_parent ON exclusions(parent_id);`,
		`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  booking_id TEXT NOT NULL UNIQUE,
  listing_id TEXT NOT NULL,
  name TEXT NOT NULL,
  rating REAL NOT NULL,
  message TEXT NOT NULL,
  timestamp TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_listing ON reviews(listing_id);`,
		`CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT NOT NULL,
  body TEXT NOT NULL,
  timestamp TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id);`,
		`CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  booking_id TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  price REAL NOT NULL,
  paid INTEGER NOT NULL DEFAULT 0
);`,
		`CREATE INDEX IF NOT EXISTS idx_bills_user ON bills(user_id);`,
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  listing_id TEXT NOT NULL DEFAULT '',
  booking_id TEXT NOT NULL DEFAULT '',
  amount REAL NOT NULL,
  balance REAL NOT NULL,
  timestamp TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);`,
		`CREATE TABLE IF NOT EXISTS accounts (
  name TEXT PRIMARY KEY,
  balance REAL NOT NULL DEFAULT 0
);`,
	}

	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
