package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// ServiceHandler serves the services catalogue. Inactive services are
// hidden from non-admins the same way blog drafts are. Slug collisions are
// resolved by the repository, so the response may carry a slug different
// from the one submitted.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(services *repository.ServiceRepo) *ServiceHandler {
	return &ServiceHandler{Services: services}
}

type serviceReq struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Icon        *string `json:"icon"`
	Active      bool    `json:"active"`
	SortOrder   int     `json:"sort_order"`
}

func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	services, err := h.Services.List(ctx, isAdmin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list services failed"})
	}
	return c.JSON(http.StatusOK, services)
}

func (h *ServiceHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Services.GetBySlug(ctx, c.Param("slug"), isAdmin(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load service failed"})
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Title == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and slug required"})
	}

	s := model.Service{
		Title:       req.Title,
		Slug:        req.Slug,
		Summary:     req.Summary,
		Description: req.Description,
		Icon:        req.Icon,
		Active:      req.Active,
		SortOrder:   req.SortOrder,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Services.Create(ctx, &s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create service failed"})
	}
	s.ID = id
	// s.Slug may differ from the request if the collision retry kicked in.
	return c.JSON(http.StatusCreated, s)
}

func (h *ServiceHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Slug) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and slug required"})
	}

	s := model.Service{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Slug:        strings.TrimSpace(req.Slug),
		Summary:     req.Summary,
		Description: req.Description,
		Icon:        req.Icon,
		Active:      req.Active,
		SortOrder:   req.SortOrder,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Services.Update(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update service failed"})
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ServiceHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Services.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete service failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
