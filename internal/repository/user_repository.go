package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nordwell/studio-api/internal/model"
)

const userColumns = `id, username, password_hash, email, phone, is_admin, is_verified, is_blocked,
	photo_url, bio, website, created_at, updated_at`

// UserRepo provides persistence for accounts.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone,
		&u.IsAdmin, &u.IsVerified, &u.IsBlocked,
		&u.PhotoURL, &u.Bio, &u.Website, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a new account and returns its id. Username and email are
// normalized before insert; duplicate keys map to the per-field sentinel by
// probing which column collided.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, email, phone string) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, phone) VALUES (?,?,?,?)",
		username, passwordHash, email, phone)
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(err.Error(), "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email))))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone,
			&u.IsAdmin, &u.IsVerified, &u.IsBlocked,
			&u.PhotoURL, &u.Bio, &u.Website, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ProfileUpdate carries the editable profile fields. Nil pointers mean
// "leave unchanged" for the nullable columns; Email and Phone are applied
// only when non-empty.
type ProfileUpdate struct {
	Email    string
	Phone    string
	PhotoURL *string
	Bio      *string
	Website  *string
}

// UpdateProfile applies profile changes. Once an account is verified, email
// and phone are locked and attempts to change them return ErrVerifiedLocked.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, upd ProfileUpdate) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	email := u.Email
	phone := u.Phone
	if upd.Email != "" {
		email = strings.ToLower(strings.TrimSpace(upd.Email))
	}
	if upd.Phone != "" {
		phone = strings.TrimSpace(upd.Phone)
	}
	if u.IsVerified && (email != u.Email || phone != u.Phone) {
		return ErrVerifiedLocked
	}
	photo := u.PhotoURL
	if upd.PhotoURL != nil {
		photo = upd.PhotoURL
	}
	bio := u.Bio
	if upd.Bio != nil {
		bio = upd.Bio
	}
	website := u.Website
	if upd.Website != nil {
		website = upd.Website
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE users SET email=?, phone=?, photo_url=?, bio=?, website=? WHERE id=?",
		email, phone, photo, bio, website, id)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// SetVerified marks the account verified. The flag flips once; verifying an
// already-verified account is a no-op.
func (r *UserRepo) SetVerified(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_verified=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Row may exist but already be verified; distinguish from missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetBlocked blocks or unblocks an account. Existing sessions are rejected
// on the next request because session resolution re-reads this flag.
func (r *UserRepo) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_blocked=? WHERE id=?", blocked, id)
	return err
}

// UpdatePassword replaces the stored hash, used by the reset flow.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}
