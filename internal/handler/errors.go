package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/repository"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

// writeError maps service/repository errors onto HTTP responses. The
// user-facing taxonomy surfaces directly; anything else is a storage
// fault reported as "operation failed, retry".
func writeError(c echo.Context, err error) error {
	var (
		vErr *service.ValidationError
		cErr *service.CooldownError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Msg})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":          cErr.Message,
			"days_remaining": cErr.DaysRemaining,
		})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrAuth):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed, retry"})
}
