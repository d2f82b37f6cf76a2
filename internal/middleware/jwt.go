package middleware // reusable HTTP middleware for session and operator gating

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionAuth validates a Bearer session token and stores the account
// id in the request context under "account_id" as a uint64. The secret
// must match the one used when issuing tokens.
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			var accountID uint64
			switch sub := claims["sub"].(type) {
			case float64:
				accountID = uint64(sub)
			case string:
				if parsed, err := strconv.ParseUint(sub, 10, 64); err == nil {
					accountID = parsed
				}
			}
			if accountID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}

			c.Set("account_id", accountID)
			return next(c)
		}
	}
}

// AccountID extracts the authenticated account id stored by
// SessionAuth. Zero means the middleware did not run.
func AccountID(c echo.Context) uint64 {
	if v, ok := c.Get("account_id").(uint64); ok {
		return v
	}
	return 0
}
