package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/handler"
	"github.com/iliyamo/beta-access-portal/internal/middleware"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check, the public site copy and the auth entry points.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, content *handler.ContentHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/content", content.Get)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterAccount registers the session-protected account surface:
// profile, notices and request submission.
func RegisterAccount(e *echo.Echo, a *handler.AuthHandler, acct *handler.AccountHandler, req *handler.RequestHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.SessionAuth(jwtSecret))

	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
	auth.PATCH("/me", acct.UpdateMe)

	auth.GET("/notices", acct.Notices)
	auth.POST("/notices/:id/read", acct.MarkNoticeRead)
	auth.GET("/notices/unread-count", acct.UnreadCount)

	auth.POST("/requests/:variant", req.Submit)
	auth.GET("/requests/:variant/cooldown", req.Cooldown)
	auth.GET("/requests/mine", req.Mine)
}

// RegisterOperator registers the privileged review surface behind the
// operator session middleware. Login itself is outside the group.
func RegisterOperator(e *echo.Echo, h *handler.OperatorHandler, op *service.Operator) {
	e.POST("/v1/operator/login", h.Login)

	g := e.Group("/v1/operator")
	g.Use(middleware.RequireOperator(op))
	g.POST("/logout", h.Logout)
	g.GET("/requests/:variant", h.Requests)
	g.POST("/requests/:variant/:id/status", h.SetStatus)
	g.DELETE("/requests/:variant/:id", h.Delete)
	g.GET("/accounts", h.Accounts)
	g.PUT("/content", h.UpdateContent)
}
