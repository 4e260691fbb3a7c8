package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// PartnerHandler serves the partner strip: a public list and admin CRUD.
type PartnerHandler struct {
	Partners *repository.PartnerRepo
}

func NewPartnerHandler(partners *repository.PartnerRepo) *PartnerHandler {
	return &PartnerHandler{Partners: partners}
}

type partnerReq struct {
	Name      string  `json:"name"`
	LogoURL   *string `json:"logo_url"`
	Website   *string `json:"website"`
	SortOrder int     `json:"sort_order"`
}

func (h *PartnerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	partners, err := h.Partners.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list partners failed"})
	}
	return c.JSON(http.StatusOK, partners)
}

func (h *PartnerHandler) Create(c echo.Context) error {
	var req partnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	p := model.Partner{Name: req.Name, LogoURL: req.LogoURL, Website: req.Website, SortOrder: req.SortOrder}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Partners.Create(ctx, &p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create partner failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, p)
}

func (h *PartnerHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req partnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	p := model.Partner{ID: id, Name: strings.TrimSpace(req.Name), LogoURL: req.LogoURL, Website: req.Website, SortOrder: req.SortOrder}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Partners.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update partner failed"})
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PartnerHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Partners.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete partner failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
