package model

import "time"

// BlogPost mirrors the `blog_posts` table. Published gates visibility for
// non-admin callers; listings filter on it and unpublished detail reads
// return not-found to anyone but an admin.
type BlogPost struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	AuthorID    *uint64    `json:"author_id,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Career mirrors the `careers` table (open positions). Active plays the same
// visibility role as BlogPost.Published.
type Career struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Type        string    `json:"type"` // full_time, part_time, contract
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Application mirrors the `applications` table, one row per submitted
// career application. Listed by admins only.
type Application struct {
	ID          uint64    `json:"id"`
	CareerID    uint64    `json:"career_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ResumeURL   *string   `json:"resume_url,omitempty"`
	CoverLetter string    `json:"cover_letter"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service mirrors the `services` table. Slugs are unique; collisions are
// resolved by suffixing rather than rejecting the write.
type Service struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Icon        *string   `json:"icon,omitempty"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Partner mirrors the `partners` table.
type Partner struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	Website   *string   `json:"website,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// Message mirrors the `messages` table (contact form submissions).
type Message struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
