package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/service"
)

// OperatorTokenHeader carries the operator session token issued by the
// operator login endpoint.
const OperatorTokenHeader = "X-Operator-Token"

// RequireOperator gates the operator routes on a live operator
// session. Expiry is enforced by the session's Redis TTL, matching the
// original one-hour auto-logout.
func RequireOperator(op *service.Operator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(OperatorTokenHeader)
			active, err := op.IsActive(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session check failed"})
			}
			if !active {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "operator session required"})
			}
			return next(c)
		}
	}
}
