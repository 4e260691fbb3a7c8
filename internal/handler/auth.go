package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/auth"
	"github.com/nordwell/studio-api/internal/config"
	"github.com/nordwell/studio-api/internal/middleware"
	"github.com/nordwell/studio-api/internal/repository"
)

// AuthHandler bundles dependencies for the account endpoints: register,
// login/logout, the current-user probe, profile edits and the password
// reset flow.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Auth  *auth.Service
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, svc *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Auth: svc}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type profileReq struct {
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	PhotoURL *string `json:"photo_url"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// setSessionCookie writes the HttpOnly session cookie. MaxAge mirrors the
// server-side TTL so browsers drop the cookie around the time the session
// dies anyway.
func (h *AuthHandler) setSessionCookie(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.Cfg.SessionTTL.Seconds()),
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Register creates an account and logs it in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Username, hash, req.Email, req.Phone); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, sid, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login after register failed"})
	}
	h.setSessionCookie(c, sid)
	return c.JSON(http.StatusCreated, u.Public())
}

// Login verifies credentials and establishes a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, sid, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnknownUser), errors.Is(err, auth.ErrBadCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		case errors.Is(err, auth.ErrBlocked):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is blocked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	h.setSessionCookie(c, sid)
	return c.JSON(http.StatusOK, u.Public())
}

// Logout invalidates the session and clears the cookie. Safe to call
// without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
		if err := h.Auth.Logout(ctx, cookie.Value); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.UserFrom(c)
	return c.JSON(http.StatusOK, u.Public())
}

// UpdateProfile edits the caller's own profile. Verified accounts cannot
// change email or phone.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	u := middleware.UserFrom(c)

	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Users.UpdateProfile(ctx, u.ID, repository.ProfileUpdate{
		Email:    req.Email,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		Bio:      req.Bio,
		Website:  req.Website,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVerifiedLocked):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verified accounts cannot change email or phone"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}

	fresh, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, fresh.Public())
}

// ForgotPassword issues a reset token for the account behind the given
// email. The response is identical whether or not the account exists, so
// the endpoint cannot be used to enumerate emails. The token would normally
// be mailed; it is logged server-side until a mail provider is wired up.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	accepted := echo.Map{"message": "if the account exists, a reset link has been sent"}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusAccepted, accepted)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	token, err := auth.NewResetToken(h.Cfg.ResetSecret, u.ID, h.Cfg.ResetTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	c.Logger().Infof("password reset token issued for user %d: %s", u.ID, token)
	return c.JSON(http.StatusAccepted, accepted)
}

// ResetPassword exchanges a valid reset token for a new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and password required"})
	}

	uid, err := auth.ParseResetToken(h.Cfg.ResetSecret, req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// The account must still exist; a deleted user's token is worthless.
	if _, err := h.Users.GetByID(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
