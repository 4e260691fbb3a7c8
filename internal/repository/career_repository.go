package repository

import (
	"context"
	"database/sql"

	"github.com/nordwell/studio-api/internal/model"
)

// CareerRepo provides persistence for open positions and the applications
// submitted against them. Applications are deleted with their career.
type CareerRepo struct{ db *sql.DB }

func NewCareerRepo(db *sql.DB) *CareerRepo { return &CareerRepo{db: db} }

const careerColumns = "id, title, location, type, description, active, created_at, updated_at"

// List returns positions newest first, active-only unless includeInactive.
func (r *CareerRepo) List(ctx context.Context, includeInactive bool) ([]model.Career, error) {
	q := "SELECT " + careerColumns + " FROM careers"
	if !includeInactive {
		q += " WHERE active=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	careers := make([]model.Career, 0)
	for rows.Next() {
		var c model.Career
		if err := rows.Scan(&c.ID, &c.Title, &c.Location, &c.Type, &c.Description,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		careers = append(careers, c)
	}
	return careers, rows.Err()
}

// GetByID fetches a position. An inactive position is reported as
// ErrNotFound to non-admin callers, same as a missing one.
func (r *CareerRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (model.Career, error) {
	var c model.Career
	err := r.db.QueryRowContext(ctx,
		"SELECT "+careerColumns+" FROM careers WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Title, &c.Location, &c.Type, &c.Description,
			&c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if !c.Active && !includeInactive {
		return model.Career{}, ErrNotFound
	}
	return c, nil
}

// Create inserts a position and returns its id.
func (r *CareerRepo) Create(ctx context.Context, c *model.Career) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO careers (title, location, type, description, active) VALUES (?,?,?,?,?)",
		c.Title, c.Location, c.Type, c.Description, c.Active)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a position.
func (r *CareerRepo) Update(ctx context.Context, c *model.Career) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE careers SET title=?, location=?, type=?, description=?, active=? WHERE id=?",
		c.Title, c.Location, c.Type, c.Description, c.Active, c.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a position and its applications in one transaction.
func (r *CareerRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM applications WHERE career_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM careers WHERE id=?", id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateApplication stores a submitted application for a position.
func (r *CareerRepo) CreateApplication(ctx context.Context, a *model.Application) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (career_id, name, email, phone, resume_url, cover_letter)
		 VALUES (?,?,?,?,?,?)`,
		a.CareerID, a.Name, a.Email, a.Phone, a.ResumeURL, a.CoverLetter)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListApplications returns applications, optionally filtered to one career,
// newest first. Admin-only at the handler layer.
func (r *CareerRepo) ListApplications(ctx context.Context, careerID uint64) ([]model.Application, error) {
	q := `SELECT id, career_id, name, email, phone, resume_url, cover_letter, created_at FROM applications`
	args := []any{}
	if careerID != 0 {
		q += " WHERE career_id=?"
		args = append(args, careerID)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	apps := make([]model.Application, 0)
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.CareerID, &a.Name, &a.Email, &a.Phone,
			&a.ResumeURL, &a.CoverLetter, &a.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
