package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/config"
	"github.com/iliyamo/beta-access-portal/internal/middleware"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/service"
	"github.com/iliyamo/beta-access-portal/internal/utils"
)

// AuthHandler bundles dependencies for the account auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Directory *service.Directory
}

func NewAuthHandler(cfg config.Config, d *service.Directory) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Directory: d}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountPart struct {
	ID                   uint64    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	LastLoginAt          time.Time `json:"last_login_at"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Account accountPart `json:"account"`
	Session tokenPart   `json:"session"`
}

func toAccountPart(a model.Account) accountPart {
	return accountPart{
		ID:                   a.ID,
		Email:                a.Email,
		FirstName:            a.FirstName,
		LastName:             a.LastName,
		NotificationsEnabled: a.NotificationsEnabled,
		CreatedAt:            a.CreatedAt,
		LastLoginAt:          a.LastLoginAt,
	}
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: create the account and return a session token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Directory.Register(ctx, req)
	if err != nil {
		return writeError(c, err)
	}

	token, err := utils.NewSessionToken(h.Cfg.JWTSecret, acct.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		Account: toAccountPart(acct),
		Session: tokenPart{Token: token.Token, Expires: token.Exp},
	})
}

// Login: verify credentials, establish the session and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Directory.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	token, err := utils.NewSessionToken(h.Cfg.JWTSecret, acct.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		Account: toAccountPart(acct),
		Session: tokenPart{Token: token.Token, Expires: token.Exp},
	})
}

// Logout drops the durable session copy (protected route).
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Directory.Logout(ctx, middleware.AccountID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current session account, rehydrated from the session
// cache or the primary store.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Directory.Current(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAccountPart(acct))
}
