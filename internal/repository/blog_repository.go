package repository

import (
	"context"
	"database/sql"

	"github.com/nordwell/studio-api/internal/model"
)

const blogColumns = `id, title, slug, excerpt, content, cover_url, author_id, published,
	published_at, created_at, updated_at`

// BlogRepo provides persistence for blog posts. Listings are capability
// based: admins see everything, everyone else sees published posts only.
type BlogRepo struct{ db *sql.DB }

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{db: db} }

func scanBlogPost(scan func(dest ...any) error) (model.BlogPost, error) {
	var p model.BlogPost
	err := scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverURL,
		&p.AuthorID, &p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns posts ordered newest first. When includeUnpublished is false
// only published posts are returned.
func (r *BlogRepo) List(ctx context.Context, includeUnpublished bool) ([]model.BlogPost, error) {
	q := "SELECT " + blogColumns + " FROM blog_posts"
	if !includeUnpublished {
		q += " WHERE published=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := make([]model.BlogPost, 0)
	for rows.Next() {
		p, err := scanBlogPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetBySlug fetches a post by slug. For non-admin callers an unpublished
// post is reported as ErrNotFound, the same as a missing one, so that
// existence of drafts is not revealed.
func (r *BlogRepo) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (model.BlogPost, error) {
	p, err := scanBlogPost(r.db.QueryRowContext(ctx,
		"SELECT "+blogColumns+" FROM blog_posts WHERE slug=? LIMIT 1", slug).Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if !p.Published && !includeUnpublished {
		return model.BlogPost{}, ErrNotFound
	}
	return p, nil
}

// Create inserts a post and returns its id. Duplicate slugs are rejected;
// blog slugs are author-chosen, unlike service slugs.
func (r *BlogRepo) Create(ctx context.Context, p *model.BlogPost) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_posts (title, slug, excerpt, content, cover_url, author_id, published, published_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.CoverURL, p.AuthorID, p.Published, p.PublishedAt)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrSlugExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the mutable columns of a post.
func (r *BlogRepo) Update(ctx context.Context, p *model.BlogPost) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE blog_posts SET title=?, slug=?, excerpt=?, content=?, cover_url=?, published=?, published_at=?
		 WHERE id=?`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.CoverURL, p.Published, p.PublishedAt, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return err
	}
	return requireRow(res)
}

// Delete removes a post by id.
func (r *BlogRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM blog_posts WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update/delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
