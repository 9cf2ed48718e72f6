package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"sfcars-engine/internal/domain"
)

// CreateMessage delivers a message to a user's inbox, assigning its id and
// timestamp.
func CreateMessage(ctx context.Context, db *sql.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(domain.BookingTimeLayout)
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO messages(id, recipient_id, email, subject, body, timestamp)
VALUES(?,?,?,?,?,?);`,
		m.ID, m.RecipientID, m.Email, m.Subject, m.Body, m.Timestamp)
	return err
}

func GetMessage(ctx context.Context, db *sql.DB, id string) (domain.Message, error) {
	var m domain.Message
	err := db.QueryRowContext(ctx, `
SELECT id, recipient_id, email, subject, body, timestamp
FROM messages WHERE id = ?;`, id).Scan(&m.ID, &m.RecipientID, &m.Email,
		&m.Subject, &m.Body, &m.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// MessagesFor lists a user's inbox, newest first.
func MessagesFor(ctx context.Context, db *sql.DB, recipientID string) ([]domain.Message, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, recipient_id, email, subject, body, timestamp
FROM messages WHERE recipient_id = ? ORDER BY timestamp DESC;`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RecipientID, &m.Email, &m.Subject,
			&m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMessages removes the given messages from a user's inbox. Messages
// belonging to other users are left alone.
func DeleteMessages(ctx context.Context, db *sql.DB, recipientID string, ids []string) error {
	for _, id := range ids {
		if _, err := db.ExecContext(ctx,
			`DELETE FROM messages WHERE id = ? AND recipient_id = ?;`, id, recipientID); err != nil {
			return err
		}
	}
	return nil
}
