package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/middleware"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

// AccountHandler serves profile updates and the notice feed.
type AccountHandler struct {
	Directory *service.Directory
}

func NewAccountHandler(d *service.Directory) *AccountHandler {
	return &AccountHandler{Directory: d}
}

// UpdateMe merges partial profile fields into the session account.
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	var req service.UpdateInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Directory.Update(ctx, middleware.AccountID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAccountPart(acct))
}

type noticePart struct {
	ID              uint64  `json:"id"`
	Title           string  `json:"title"`
	Body            string  `json:"body"`
	Kind            string  `json:"kind"`
	Read            bool    `json:"read"`
	LinkedRequestID *uint64 `json:"linked_request_id,omitempty"`
	OperatorComment *string `json:"operator_comment,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// Notices lists the account's feed, unread first and newest within
// each group. The ordering is a presentation choice applied here, not
// a storage guarantee.
func (h *AccountHandler) Notices(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	notices, err := h.Directory.ListNotices(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}

	sort.SliceStable(notices, func(i, j int) bool {
		if notices[i].Read != notices[j].Read {
			return !notices[i].Read
		}
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})

	out := make([]noticePart, 0, len(notices))
	for _, n := range notices {
		out = append(out, toNoticePart(n))
	}
	return c.JSON(http.StatusOK, out)
}

func toNoticePart(n model.Notice) noticePart {
	return noticePart{
		ID:              n.ID,
		Title:           n.Title,
		Body:            n.Body,
		Kind:            string(n.Kind),
		Read:            n.Read,
		LinkedRequestID: n.LinkedRequestID,
		OperatorComment: n.OperatorComment,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
	}
}

// MarkNoticeRead flips the read flag; calling it twice is harmless.
func (h *AccountHandler) MarkNoticeRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notice id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Directory.MarkNoticeRead(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount returns the badge number for the notifications bell.
func (h *AccountHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Directory.UnreadCount(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}
