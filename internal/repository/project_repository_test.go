package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title", "legacy_name", "status",
		"start_date", "end_date", "completion_percentage", "created_at", "updated_at"})
}

func newTestProjectRepo(t *testing.T) (*ProjectRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProjectRepo(db), mock
}

// A zero id never reaches the database.
func TestProjectGetByIDZero(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	_, err := repo.GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Legacy rows carry the display name in legacy_name; it is coalesced into
// Title on read.
func TestProjectLegacyNameCoalesced(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	now := time.Now()
	legacy := "Old CRM Rework"
	mock.ExpectQuery(`SELECT .+ FROM projects WHERE id=\? LIMIT 1`).
		WithArgs(uint64(3)).
		WillReturnRows(projectRows().AddRow(3, 9, nil, legacy, "in_progress", nil, nil, 40, now, now))

	p, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Old CRM Rework", p.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A row with neither title nor legacy name is malformed and reported as
// missing rather than served half-empty.
func TestProjectMalformedRowHidden(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM projects WHERE id=\? LIMIT 1`).
		WithArgs(uint64(4)).
		WillReturnRows(projectRows().AddRow(4, 9, nil, nil, "planned", nil, nil, 0, now, now))

	_, err := repo.GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Listings silently skip malformed rows instead of failing the request.
func TestProjectListSkipsMalformedRows(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	now := time.Now()
	legacy := "Legacy Site"
	mock.ExpectQuery(`SELECT .+ FROM projects WHERE user_id=\? ORDER BY created_at DESC`).
		WithArgs(uint64(9)).
		WillReturnRows(projectRows().
			AddRow(1, 9, "Website Redesign", nil, "in_progress", nil, nil, 60, now, now).
			AddRow(2, 9, nil, nil, "planned", nil, nil, 0, now, now).
			AddRow(3, 9, "  ", legacy, "completed", nil, nil, 100, now, now))

	projects, err := repo.ListByUser(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Website Redesign", projects[0].Title)
	assert.Equal(t, "Legacy Site", projects[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a project removes its update feed in the same transaction.
func TestProjectDeleteCascadesUpdates(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM project_updates WHERE project_id=\?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM projects WHERE id=\?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDeleteMissingRollsBack(t *testing.T) {
	repo, mock := newTestProjectRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM project_updates WHERE project_id=\?`).
		WithArgs(uint64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM projects WHERE id=\?`).
		WithArgs(uint64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
