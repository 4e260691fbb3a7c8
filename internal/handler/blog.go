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

// BlogHandler serves the blog: public reads of published posts, full CRUD
// for admins. Drafts are invisible to non-admins, including on detail
// reads, where an unpublished slug answers 404 exactly like a missing one.
type BlogHandler struct {
	Posts *repository.BlogRepo
}

func NewBlogHandler(posts *repository.BlogRepo) *BlogHandler {
	return &BlogHandler{Posts: posts}
}

type blogReq struct {
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Excerpt   string  `json:"excerpt"`
	Content   string  `json:"content"`
	CoverURL  *string `json:"cover_url"`
	Published bool    `json:"published"`
}

// isAdmin reports whether the request carries an admin identity.
func isAdmin(c echo.Context) bool {
	u := middleware.UserFrom(c)
	return u != nil && u.IsAdmin
}

// List returns posts. Admins see drafts too.
func (h *BlogHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	posts, err := h.Posts.List(ctx, isAdmin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list posts failed"})
	}
	return c.JSON(http.StatusOK, posts)
}

// Get returns one post by slug.
func (h *BlogHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Posts.GetBySlug(ctx, c.Param("slug"), isAdmin(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load post failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Create inserts a post (admin).
func (h *BlogHandler) Create(c echo.Context) error {
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Title == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and slug required"})
	}

	u := middleware.UserFrom(c)
	p := model.BlogPost{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		CoverURL:  req.CoverURL,
		AuthorID:  &u.ID,
		Published: req.Published,
	}
	if p.Published {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Posts.Create(ctx, &p)
	if err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, p)
}

// Update rewrites a post (admin). Publishing for the first time stamps
// published_at; unpublishing clears it.
func (h *BlogHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Slug) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and slug required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := model.BlogPost{
		ID:        id,
		Title:     strings.TrimSpace(req.Title),
		Slug:      strings.TrimSpace(req.Slug),
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		CoverURL:  req.CoverURL,
		Published: req.Published,
	}
	if req.Published {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	if err := h.Posts.Update(ctx, &p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		case errors.Is(err, repository.ErrSlugExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update post failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a post (admin).
func (h *BlogHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
