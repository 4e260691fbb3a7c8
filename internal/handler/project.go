package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/middleware"
	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// ProjectHandler serves the client dashboard: a client sees their own
// projects, an admin sees and manages all of them. Ownership violations
// answer 403, never 404, so a client can tell "not yours" apart from
// "gone" but sees no data either way.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

type projectReq struct {
	UserID               uint64     `json:"user_id"`
	Title                string     `json:"title"`
	Status               string     `json:"status"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	CompletionPercentage int        `json:"completion_percentage"`
}

type updateReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// loadAuthorized fetches a project and enforces owner-or-admin access. On
// failure it has already written the response and returns ok=false.
func (h *ProjectHandler) loadAuthorized(c echo.Context, id uint64) (model.Project, bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
		}
		return model.Project{}, false
	}
	u := middleware.UserFrom(c)
	if !u.IsAdmin && p.UserID != u.ID {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "not your project"})
		return model.Project{}, false
	}
	return p, true
}

// List returns the caller's projects; admins get everything.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u := middleware.UserFrom(c)
	var (
		projects []model.Project
		err      error
	)
	if u.IsAdmin {
		projects, err = h.Projects.ListAll(ctx)
	} else {
		projects, err = h.Projects.ListByUser(ctx, u.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list projects failed"})
	}
	return c.JSON(http.StatusOK, projects)
}

// Get returns one project (owner or admin).
func (h *ProjectHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, ok := h.loadAuthorized(c, id)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, p)
}

// ListUpdates returns the progress feed (owner or admin).
func (h *ProjectHandler) ListUpdates(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, ok := h.loadAuthorized(c, id); !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updates, err := h.Projects.ListUpdates(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list updates failed"})
	}
	return c.JSON(http.StatusOK, updates)
}

// Create inserts a project for a client (admin).
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.UserID == 0 || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and title required"})
	}
	if req.Status == "" {
		req.Status = "planned"
	}

	p := model.Project{
		UserID:               req.UserID,
		Title:                req.Title,
		Status:               req.Status,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		CompletionPercentage: clampPercent(req.CompletionPercentage),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Projects.Create(ctx, &p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create project failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, p)
}

// Update rewrites a project (admin). Ownership never changes here.
func (h *ProjectHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	p := model.Project{
		ID:                   id,
		Title:                strings.TrimSpace(req.Title),
		Status:               req.Status,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		CompletionPercentage: clampPercent(req.CompletionPercentage),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Projects.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update project failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a project and its update feed (admin). Projects that
// still carry invoices are refused by the foreign key.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "delete project failed; remove its invoices first"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateUpdate appends a progress note (admin).
func (h *ProjectHandler) CreateUpdate(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
	}

	u := model.ProjectUpdate{ProjectID: id, Title: strings.TrimSpace(req.Title), Body: req.Body}
	uid, err := h.Projects.CreateUpdate(ctx, &u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create update failed"})
	}
	u.ID = uid
	return c.JSON(http.StatusCreated, u)
}

// DeleteUpdate removes one progress note (admin).
func (h *ProjectHandler) DeleteUpdate(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Projects.DeleteUpdate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "update not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
