package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/middleware"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

// RequestHandler serves submission and self-service views of access
// requests.
type RequestHandler struct {
	Registry  *service.Registry
	Directory *service.Directory
}

func NewRequestHandler(r *service.Registry, d *service.Directory) *RequestHandler {
	return &RequestHandler{Registry: r, Directory: d}
}

type requestPart struct {
	ID              uint64  `json:"id"`
	Variant         string  `json:"variant"`
	Status          string  `json:"status"`
	OperatorComment *string `json:"operator_comment,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`

	Reason string `json:"reason,omitempty"`

	Role            string `json:"role,omitempty"`
	YearsExperience int    `json:"years_experience,omitempty"`
	Skills          string `json:"skills,omitempty"`
	Motivation      string `json:"motivation,omitempty"`
	Portfolio       string `json:"portfolio,omitempty"`
}

func toRequestPart(r model.AccessRequest) requestPart {
	p := requestPart{
		ID:              r.ID,
		Variant:         string(r.Variant),
		Status:          string(r.Status),
		OperatorComment: r.OperatorComment,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		Reason:          r.Reason,
		Role:            r.Role,
		YearsExperience: r.YearsExperience,
		Skills:          r.Skills,
		Motivation:      r.Motivation,
		Portfolio:       r.Portfolio,
	}
	if r.ProcessedAt != nil {
		s := r.ProcessedAt.Format(time.RFC3339)
		p.ProcessedAt = &s
	}
	return p
}

func parseVariantParam(c echo.Context) (model.Variant, error) {
	return model.ParseVariant(c.Param("variant"))
}

// Submit files a new request of the path variant for the session
// account. Contact fields are snapshotted from the account record.
func (h *RequestHandler) Submit(c echo.Context) error {
	variant, err := parseVariantParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown request variant"})
	}
	var req service.SubmitInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Directory.Current(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	created, err := h.Registry.Submit(ctx, variant, acct, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestPart(created))
}

// Cooldown reports whether the session account may submit the path
// variant right now, so the UI can pre-empt a doomed submission.
func (h *RequestHandler) Cooldown(c echo.Context) error {
	variant, err := parseVariantParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown request variant"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cd, err := h.Registry.CooldownStatus(ctx, variant, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cd)
}

// Mine lists the session account's requests of both variants.
func (h *RequestHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	byVariant, err := h.Registry.ListForAccount(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}

	out := make(map[string][]requestPart, len(byVariant))
	for v, reqs := range byVariant {
		parts := make([]requestPart, 0, len(reqs))
		for _, r := range reqs {
			parts = append(parts, toRequestPart(r))
		}
		out[string(v)] = parts
	}
	return c.JSON(http.StatusOK, out)
}
