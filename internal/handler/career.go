package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/queue"
	"github.com/nordwell/studio-api/internal/repository"
	queue_publisher "github.com/nordwell/studio-api/internal/service"
)

// CareerHandler serves open positions and the applications submitted
// against them. Applying is anonymous; reading applications is admin-only.
type CareerHandler struct {
	Careers *repository.CareerRepo
}

func NewCareerHandler(careers *repository.CareerRepo) *CareerHandler {
	return &CareerHandler{Careers: careers}
}

type careerReq struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type applyReq struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	ResumeURL   *string `json:"resume_url"`
	CoverLetter string  `json:"cover_letter"`
}

func (h *CareerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	careers, err := h.Careers.List(ctx, isAdmin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list careers failed"})
	}
	return c.JSON(http.StatusOK, careers)
}

func (h *CareerHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	career, err := h.Careers.GetByID(ctx, id, isAdmin(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "career not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load career failed"})
	}
	return c.JSON(http.StatusOK, career)
}

// Apply stores an application for an active position and announces it on
// the broker. A closed or missing position answers 404 either way.
func (h *CareerHandler) Apply(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	career, err := h.Careers.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "career not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load career failed"})
	}

	a := model.Application{
		CareerID:    id,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	}
	appID, err := h.Careers.CreateApplication(ctx, &a)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit application failed"})
	}
	a.ID = appID

	// Best effort: a broker outage must not lose the application.
	_ = queue_publisher.PublishApplicationSubmitted(ctx, queue.ApplicationSubmittedEvent{
		ApplicationID: appID,
		CareerID:      id,
		CareerTitle:   career.Title,
		Name:          a.Name,
		Email:         a.Email,
		SubmittedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, a)
}

func (h *CareerHandler) Create(c echo.Context) error {
	var req careerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.Type == "" {
		req.Type = "full_time"
	}

	career := model.Career{
		Title:       req.Title,
		Location:    req.Location,
		Type:        req.Type,
		Description: req.Description,
		Active:      req.Active,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Careers.Create(ctx, &career)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create career failed"})
	}
	career.ID = id
	return c.JSON(http.StatusCreated, career)
}

func (h *CareerHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req careerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	career := model.Career{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Location:    req.Location,
		Type:        req.Type,
		Description: req.Description,
		Active:      req.Active,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Careers.Update(ctx, &career); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "career not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update career failed"})
	}
	return c.JSON(http.StatusOK, career)
}

// Delete removes a position together with its applications.
func (h *CareerHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Careers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "career not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete career failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListApplications returns applications, optionally filtered with
// ?career_id= (admin).
func (h *CareerHandler) ListApplications(c echo.Context) error {
	var careerID uint64
	if raw := c.QueryParam("career_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid career_id"})
		}
		careerID = id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	apps, err := h.Careers.ListApplications(ctx, careerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list applications failed"})
	}
	return c.JSON(http.StatusOK, apps)
}
