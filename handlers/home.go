package handlers

import (
	"net/http"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// HomeHandler renders the mairie portal entry page
func HomeHandler(c echo.Context) error {
	types, err := services.ListAppointmentTypes(middleware.GetTenantDB(c))
	if err != nil {
		logger.L().Error("failed to list appointment types", "error", err)
	}

	name := ""
	if mairie := middleware.GetMairie(c); mairie != nil {
		name = mairie.Name
	}
	data := pages.HomeData{Variants: models.AllVariants, AppointmentTypes: types}
	return renderPage(c, http.StatusOK, pages.Home, tr(c, "page.home", map[string]interface{}{"mairie": name}), data)
}

// CivilRegistryHomeHandler lists the civil-registry forms and the tracking entry point
func CivilRegistryHomeHandler(c echo.Context) error {
	data := pages.HomeData{Variants: models.AllVariants}
	return renderPage(c, http.StatusOK, pages.CivilHome, tr(c, "page.civil_home"), data)
}

// ServicesHomeHandler lists the appointment types and the other municipal services
func ServicesHomeHandler(c echo.Context) error {
	types, err := services.ListAppointmentTypes(middleware.GetTenantDB(c))
	if err != nil {
		logger.L().Error("failed to list appointment types", "error", err)
	}
	data := pages.HomeData{AppointmentTypes: types}
	return renderPage(c, http.StatusOK, pages.ServicesHome, tr(c, "page.services_home"), data)
}
