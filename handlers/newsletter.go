package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// NewsletterHandler renders the subscription form
func NewsletterHandler(c echo.Context) error {
	data := pages.NewsletterData{Form: pages.Form{Values: requesterValues(middleware.GetCurrentUser(c))}}
	return renderPage(c, http.StatusOK, pages.Newsletter, tr(c, "page.newsletter"), data)
}

// NewsletterSubscribeHandler subscribes an address and sends the welcome mail
func NewsletterSubscribeHandler(c echo.Context) error {
	sub, err := services.SubscribeNewsletter(middleware.GetTenantDB(c),
		c.FormValue("email"), c.FormValue("nom"), c.FormValue("prenom"))
	if err != nil {
		if errors.Is(err, services.ErrAlreadySubscribed) {
			return flashRedirect(c, middleware.FlashInfo, tr(c, "flash.newsletter_already"), "/")
		}
		if problems := services.ValidationProblems(err); problems != nil {
			data := pages.NewsletterData{Form: pages.Form{Values: submittedValues(c), Problems: problems}}
			return renderPage(c, http.StatusUnprocessableEntity, pages.Newsletter, tr(c, "page.newsletter"), data)
		}
		logger.L().Error("failed to subscribe to newsletter", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to subscribe")
	}

	notifier(c).NewsletterWelcome(sub)
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.newsletter_subscribed"), "/")
}

// NewsletterUnsubscribeHandler follows the link carried by every newsletter mail
func NewsletterUnsubscribeHandler(c echo.Context) error {
	if _, err := services.UnsubscribeNewsletter(middleware.GetTenantDB(c), c.Param("token")); err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.newsletter_unknown"), "/services/newsletter/")
		}
		logger.L().Error("failed to unsubscribe from newsletter", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to unsubscribe")
	}
	return renderPage(c, http.StatusOK, pages.Newsletter, tr(c, "page.newsletter"), pages.NewsletterData{Unsubscribed: true})
}

// AgentNewsletterExportHandler downloads the active subscribers as a workbook
func AgentNewsletterExportHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	buf, err := services.ExportNewsletterSubscribers(c.Request().Context(), conn)
	if err != nil {
		logger.L().Error("failed to export subscribers", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export subscribers")
	}

	services.LogAuditEvent(conn, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionExport,
		ResourceType: models.AuditResourceNewsletter,
		ResourceID:   "subscribers",
		Description:  "Export des abonnés à la newsletter",
	})

	name := fmt.Sprintf("abonnes_%s_%s.xlsx", middleware.GetMairie(c).SchemaName, time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
