package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/repository"
)

// ContentHandler serves the public site copy.
type ContentHandler struct {
	Content *repository.ContentRepo
}

func NewContentHandler(content *repository.ContentRepo) *ContentHandler {
	return &ContentHandler{Content: content}
}

// Get returns the singleton site-content record.
func (h *ContentHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	content, err := h.Content.Get(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, content)
}
