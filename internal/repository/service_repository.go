package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/nordwell/studio-api/internal/model"
)

// ServiceRepo provides persistence for the services catalogue. Slugs are
// unique; on collision the write is retried with a short timestamp token
// appended rather than rejected, so creating "consulting" twice yields
// "consulting" and "consulting-<token>".
type ServiceRepo struct {
	db *sql.DB
	// now is a seam for deterministic slug suffixes in tests.
	now func() time.Time
}

func NewServiceRepo(db *sql.DB) *ServiceRepo {
	return &ServiceRepo{db: db, now: time.Now}
}

const serviceColumns = "id, title, slug, summary, description, icon, active, sort_order, created_at, updated_at"

func scanService(scan func(dest ...any) error) (model.Service, error) {
	var s model.Service
	err := scan(&s.ID, &s.Title, &s.Slug, &s.Summary, &s.Description, &s.Icon,
		&s.Active, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// slugToken returns a short base36 token derived from the current time,
// used to dedupe colliding slugs.
func (r *ServiceRepo) slugToken() string {
	return strconv.FormatInt(r.now().UnixMilli(), 36)
}

// List returns services ordered by sort order, active-only unless
// includeInactive.
func (r *ServiceRepo) List(ctx context.Context, includeInactive bool) ([]model.Service, error) {
	q := "SELECT " + serviceColumns + " FROM services"
	if !includeInactive {
		q += " WHERE active=1"
	}
	q += " ORDER BY sort_order, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// GetBySlug fetches a service by slug with the same not-found conflation as
// blog posts: inactive services are invisible to non-admins.
func (r *ServiceRepo) GetBySlug(ctx context.Context, slug string, includeInactive bool) (model.Service, error) {
	s, err := scanService(r.db.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE slug=? LIMIT 1", slug).Scan)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if !s.Active && !includeInactive {
		return model.Service{}, ErrNotFound
	}
	return s, nil
}

// Create inserts a service. On a slug collision the insert is retried once
// with a timestamp token suffix; the final slug is written back to s.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) (uint64, error) {
	id, err := r.insert(ctx, s)
	if isDuplicate(err) {
		s.Slug = s.Slug + "-" + r.slugToken()
		id, err = r.insert(ctx, s)
	}
	return id, err
}

func (r *ServiceRepo) insert(ctx context.Context, s *model.Service) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO services (title, slug, summary, description, icon, active, sort_order)
		 VALUES (?,?,?,?,?,?,?)`,
		s.Title, s.Slug, s.Summary, s.Description, s.Icon, s.Active, s.SortOrder)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a service. Slug collisions on update follow the same
// dedup policy as Create.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	err := r.update(ctx, s)
	if isDuplicate(err) {
		s.Slug = s.Slug + "-" + r.slugToken()
		err = r.update(ctx, s)
	}
	return err
}

func (r *ServiceRepo) update(ctx context.Context, s *model.Service) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE services SET title=?, slug=?, summary=?, description=?, icon=?, active=?, sort_order=? WHERE id=?",
		s.Title, s.Slug, s.Summary, s.Description, s.Icon, s.Active, s.SortOrder, s.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a service by id.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
