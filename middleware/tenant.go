package middleware

import (
	"errors"
	"net/http"

	"e_mairie_go/db"
	"e_mairie_go/logger"
	"e_mairie_go/metrics"
	"e_mairie_go/models"
	"e_mairie_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// ContextKeyMairie is the context key for the mairie serving the request
	ContextKeyMairie = "mairie"
	// ContextKeyTenantDB is the context key for the mairie's partition connection
	ContextKeyTenantDB = "tenant_db"
)

// ResolveTenant maps the request host to an active mairie and its data partition.
// Unknown hosts get a 404 and nothing downstream runs.
func ResolveTenant(registry *gorm.DB, router *db.TenantRouter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host := c.Request().Host
			mairie, err := services.ResolveMairieByHost(registry, host)
			if err != nil {
				if errors.Is(err, services.ErrUnknownTenant) {
					metrics.UnknownTenantHosts.Inc()
					logger.L().Warn("unknown tenant host", "host", host)
					return echo.NewHTTPError(http.StatusNotFound, "Mairie introuvable")
				}
				return err
			}

			conn, err := router.For(mairie)
			if err != nil {
				logger.L().Error("failed to open mairie partition", "schema", mairie.SchemaName, "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Service momentanément indisponible")
			}

			c.Set(ContextKeyMairie, mairie)
			c.Set(ContextKeyTenantDB, conn)
			return next(c)
		}
	}
}

// GetMairie retrieves the resolved mairie from context
func GetMairie(c echo.Context) *models.Mairie {
	mairie, ok := c.Get(ContextKeyMairie).(*models.Mairie)
	if !ok {
		return nil
	}
	return mairie
}

// GetTenantDB retrieves the mairie's partition connection from context
func GetTenantDB(c echo.Context) *gorm.DB {
	conn, ok := c.Get(ContextKeyTenantDB).(*gorm.DB)
	if !ok {
		return nil
	}
	return conn
}
