package repository

import (
	"context"
	"database/sql"

	"github.com/nordwell/studio-api/internal/model"
)

// MessageRepo provides persistence for contact form submissions.
type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create stores an inbound contact message.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (name, email, subject, body) VALUES (?,?,?,?)",
		m.Name, m.Email, m.Subject, m.Body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all messages, unread first then newest first.
func (r *MessageRepo) List(ctx context.Context) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, subject, body, `read`, created_at FROM messages ORDER BY `read`, created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetByID fetches a single message.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.Message, error) {
	var m model.Message
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, subject, body, `read`, created_at FROM messages WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Read, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

// MarkRead flags a message as handled. Marking an already-read message is a
// no-op, so affected rows are not checked here.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE messages SET `read`=1 WHERE id=?", id)
	return err
}

// Delete removes a message by id.
func (r *MessageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
