package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// UserHandler covers admin account management: listing clients, verifying
// accounts and blocking/unblocking them.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: users}
}

// List returns all accounts, hashes stripped (admin).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return c.JSON(http.StatusOK, out)
}

// Verify marks an account verified (admin). Verification is one-way and
// locks the account's email and phone.
func (h *UserHandler) Verify(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetVerified(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user verified"})
}

// Block blocks an account (admin). The user's live sessions die on their
// next request.
func (h *UserHandler) Block(c echo.Context) error {
	return h.setBlocked(c, true)
}

// Unblock reinstates a blocked account (admin).
func (h *UserHandler) Unblock(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *UserHandler) setBlocked(c echo.Context, blocked bool) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.Users.SetBlocked(ctx, id, blocked); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	if blocked {
		return c.JSON(http.StatusOK, echo.Map{"message": "user blocked"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user unblocked"})
}
