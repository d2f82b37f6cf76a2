package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/middleware"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/repository"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

// OperatorHandler serves the privileged review endpoints: request
// triage, the account roster and site-content editing.
type OperatorHandler struct {
	Operator  *service.Operator
	Registry  *service.Registry
	Directory *service.Directory
	Content   *repository.ContentRepo
}

func NewOperatorHandler(op *service.Operator, r *service.Registry, d *service.Directory, content *repository.ContentRepo) *OperatorHandler {
	return &OperatorHandler{Operator: op, Registry: r, Directory: d, Content: content}
}

type operatorLoginReq struct {
	Passphrase string `json:"passphrase"`
}

// Login verifies the operator passphrase and issues a session token
// with the configured TTL. Wrong passphrases get a plain 401; there is
// deliberately no lockout.
func (h *OperatorHandler) Login(c echo.Context) error {
	var req operatorLoginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Passphrase) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passphrase required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	token, err := h.Operator.StartSession(ctx, req.Passphrase)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Logout ends the operator session immediately.
func (h *OperatorHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	token := c.Request().Header.Get(middleware.OperatorTokenHeader)
	if err := h.Operator.EndSession(ctx, token); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Requests lists a variant's requests, optionally filtered with
// ?status=pending (or approved/rejected).
func (h *OperatorHandler) Requests(c echo.Context) error {
	variant, err := parseVariantParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown request variant"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	var reqs []model.AccessRequest
	if raw := c.QueryParam("status"); raw != "" {
		status, perr := model.ParseStatus(raw)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		reqs, err = h.Registry.ListByStatus(ctx, variant, status)
	} else {
		reqs, err = h.Registry.ListAll(ctx, variant)
	}
	if err != nil {
		return writeError(c, err)
	}

	out := make([]requestPart, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestPart(r))
	}
	return c.JSON(http.StatusOK, out)
}

type setStatusReq struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

// SetStatus applies an operator decision, or a comment-only annotation
// when status is "pending".
func (h *OperatorHandler) SetStatus(c echo.Context) error {
	variant, err := parseVariantParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown request variant"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := h.Registry.SetStatus(ctx, variant, id, status, req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestPart(updated))
}

// Delete hard-deletes a request.
func (h *OperatorHandler) Delete(c echo.Context) error {
	variant, err := parseVariantParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown request variant"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Registry.Remove(ctx, variant, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accounts returns the roster for the operator view. Password digests
// are never serialized.
func (h *OperatorHandler) Accounts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	accounts, err := h.Directory.ListAccounts(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]accountPart, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountPart(a))
	}
	return c.JSON(http.StatusOK, out)
}

type contentReq struct {
	HeroTitle    string `json:"hero_title"`
	HeroSubtitle string `json:"hero_subtitle"`
	ReleaseDate  string `json:"release_date"`
}

// UpdateContent overwrites the singleton site copy.
func (h *OperatorHandler) UpdateContent(c echo.Context) error {
	var req contentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	content := model.SiteContent{
		HeroTitle:    req.HeroTitle,
		HeroSubtitle: req.HeroSubtitle,
		ReleaseDate:  req.ReleaseDate,
	}
	if err := h.Content.Upsert(ctx, &content); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, content)
}
