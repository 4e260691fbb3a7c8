package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nordwell/studio-api/internal/model"
)

// ProjectRepo provides persistence for client projects and their update
// feed. Reads are defensive: ids must be positive and rows that carry
// neither a title nor a legacy name are dropped instead of surfacing as
// half-formed records.
type ProjectRepo struct{ db *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = `id, user_id, title, legacy_name, status, start_date, end_date,
	completion_percentage, created_at, updated_at`

func scanProject(scan func(dest ...any) error) (model.Project, error) {
	var p model.Project
	var title sql.NullString
	err := scan(&p.ID, &p.UserID, &title, &p.LegacyName, &p.Status,
		&p.StartDate, &p.EndDate, &p.CompletionPercentage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Title = strings.TrimSpace(title.String)
	if p.Title == "" && p.LegacyName != nil {
		p.Title = strings.TrimSpace(*p.LegacyName)
	}
	return p, nil
}

// wellFormed reports whether the row carries a usable display name.
func wellFormed(p model.Project) bool { return p.Title != "" }

// GetByID fetches a project. Non-positive ids and malformed rows are
// reported as ErrNotFound rather than reaching the storage layer or the
// API boundary.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	if id == 0 {
		return model.Project{}, ErrNotFound
	}
	p, err := scanProject(r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if !wellFormed(p) {
		return model.Project{}, ErrNotFound
	}
	return p, nil
}

// OwnerID returns the owning user of a project without loading the full
// row. Used for invoice authorization checks.
func (r *ProjectRepo) OwnerID(ctx context.Context, id uint64) (uint64, error) {
	if id == 0 {
		return 0, ErrNotFound
	}
	var uid uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM projects WHERE id=? LIMIT 1", id).Scan(&uid)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return uid, err
}

// ListByUser returns the projects owned by one user, newest first.
func (r *ProjectRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" FROM projects WHERE user_id=? ORDER BY created_at DESC", userID)
}

// ListAll returns every project, newest first. Admin-only at the handler
// layer.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY created_at DESC")
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		if !wellFormed(p) {
			continue
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Create inserts a project and returns its id. New rows write the canonical
// title column only.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (user_id, title, status, start_date, end_date, completion_percentage)
		 VALUES (?,?,?,?,?,?)`,
		p.UserID, p.Title, p.Status, p.StartDate, p.EndDate, p.CompletionPercentage)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a project's mutable columns.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET title=?, status=?, start_date=?, end_date=?, completion_percentage=? WHERE id=?`,
		p.Title, p.Status, p.StartDate, p.EndDate, p.CompletionPercentage, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a project and its update feed. Invoices are deleted
// through the billing engine first; a project with remaining invoices is
// protected by the foreign key.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_updates WHERE project_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ListUpdates returns the progress feed for a project, newest first.
func (r *ProjectRepo) ListUpdates(ctx context.Context, projectID uint64) ([]model.ProjectUpdate, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, project_id, title, body, created_at FROM project_updates WHERE project_id=? ORDER BY created_at DESC",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	updates := make([]model.ProjectUpdate, 0)
	for rows.Next() {
		var u model.ProjectUpdate
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Title, &u.Body, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// CreateUpdate appends a progress note to a project.
func (r *ProjectRepo) CreateUpdate(ctx context.Context, u *model.ProjectUpdate) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO project_updates (project_id, title, body) VALUES (?,?,?)",
		u.ProjectID, u.Title, u.Body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteUpdate removes one progress note.
func (r *ProjectRepo) DeleteUpdate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM project_updates WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
