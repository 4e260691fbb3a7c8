package repository

import (
	"context"
	"database/sql"

	"github.com/nordwell/studio-api/internal/model"
)

// PartnerRepo provides persistence for partner logos shown on the site.
type PartnerRepo struct{ db *sql.DB }

func NewPartnerRepo(db *sql.DB) *PartnerRepo { return &PartnerRepo{db: db} }

// List returns partners in display order.
func (r *PartnerRepo) List(ctx context.Context) ([]model.Partner, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, logo_url, website, sort_order, created_at FROM partners ORDER BY sort_order, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	partners := make([]model.Partner, 0)
	for rows.Next() {
		var p model.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.LogoURL, &p.Website, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

// Create inserts a partner and returns its id.
func (r *PartnerRepo) Create(ctx context.Context, p *model.Partner) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO partners (name, logo_url, website, sort_order) VALUES (?,?,?,?)",
		p.Name, p.LogoURL, p.Website, p.SortOrder)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a partner.
func (r *PartnerRepo) Update(ctx context.Context, p *model.Partner) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE partners SET name=?, logo_url=?, website=?, sort_order=? WHERE id=?",
		p.Name, p.LogoURL, p.Website, p.SortOrder, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a partner by id.
func (r *PartnerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM partners WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
