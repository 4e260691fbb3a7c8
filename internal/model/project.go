package model

import "time"

// Project mirrors the `projects` table. A project belongs to exactly one
// user; invoice authorization is derived transitively through UserID.
//
// Title is the canonical display field. LegacyName survives from an older
// schema where rows carried either column; the repository coalesces it into
// Title and filters rows where both are empty. New writes populate Title
// only.
type Project struct {
	ID                   uint64     `json:"id"`
	UserID               uint64     `json:"user_id"`
	Title                string     `json:"title"`
	LegacyName           *string    `json:"-"`
	Status               string     `json:"status"` // planned, in_progress, on_hold, completed
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	CompletionPercentage int        `json:"completion_percentage"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ProjectUpdate mirrors the `project_updates` table, a progress note feed
// shown on the client dashboard.
type ProjectUpdate struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
