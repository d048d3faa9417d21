package middleware

import (
	"e_mairie_go/services"

	"github.com/labstack/echo/v4"
)

// ContextKeyAuditContext holds the services.AuditContext of the request
const ContextKeyAuditContext = "audit_context"

// AuditContext records who is acting, from where, and under which request id.
// It runs after LoadSession so the signed-in agent is known.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyAuditContext, buildAuditContext(c))
			return next(c)
		}
	}
}

// GetAuditContext returns the request's audit context, building one when the middleware did not run
func GetAuditContext(c echo.Context) services.AuditContext {
	if ctx, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return ctx
	}
	return buildAuditContext(c)
}

func buildAuditContext(c echo.Context) services.AuditContext {
	ctx := services.AuditContextForUser(GetCurrentUser(c), c.RealIP(), c.Request().UserAgent())
	ctx.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	if ctx.RequestID == "" {
		ctx.RequestID = c.Request().Header.Get(echo.HeaderXRequestID)
	}
	return ctx
}
