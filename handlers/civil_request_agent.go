package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

const agentRequestsPath = "/etat-civil/agent/demandes/"

// recentPerVariant is how many requests of each variant the unfiltered work list shows
const recentPerVariant = 10

func agentRequestPath(r *models.CivilRequest) string {
	return fmt.Sprintf("%s%s/%s/", agentRequestsPath, r.Variant, r.ID)
}

// AgentRequestsHandler lists civil requests for agents, filtered by variant, status or search
func AgentRequestsHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)

	filter := services.CivilRequestFilter{
		Search: strings.TrimSpace(c.QueryParam("q")),
		Limit:  200,
	}
	if raw := c.QueryParam("type"); raw != "" {
		variant, ok := models.ParseVariant(raw)
		if !ok {
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_variant"), agentRequestsPath)
		}
		filter.Variant = variant
	}
	if status := c.QueryParam("statut"); models.IsValidRequestStatus(status) {
		filter.Status = status
	}

	data := pages.AgentRequestsData{
		Filter:   filter,
		Variants: models.AllVariants,
		Statuses: models.AllRequestStatuses,
		Year:     time.Now().Year(),
	}

	var err error
	if filter.Variant == "" && filter.Search == "" {
		data.Recent, err = services.ListRecentCivilRequests(conn, recentPerVariant, filter.Status)
	} else {
		data.Requests, err = services.ListCivilRequests(conn, filter)
	}
	if err != nil {
		logger.L().Error("failed to list requests", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load requests")
	}
	data.Counts, err = services.CountCivilRequestsByStatus(conn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count requests")
	}

	return renderPage(c, http.StatusOK, pages.AgentRequests, tr(c, "page.agent_requests"), data)
}

// AgentRequestHandler shows one request with the actions its status allows
func AgentRequestHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	variant, ok := models.ParseVariant(c.Param("variant"))
	if !ok {
		return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_variant"), agentRequestsPath)
	}

	request, err := services.GetCivilRequest(conn, variant, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.request_not_found"), agentRequestsPath)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load request")
	}

	history, err := services.GetResourceAuditHistory(conn, models.AuditResourceCivilRequest, request.ID)
	if err != nil {
		logger.L().Error("failed to load request history", "id", request.ID, "error", err)
	}

	data := pages.AgentRequestData{
		Request: request,
		Actions: services.AvailableRequestActions(request.Status),
		History: history,
	}
	title := tr(c, "page.agent_request", map[string]interface{}{"reference": request.ReferenceNumber})
	return renderPage(c, http.StatusOK, pages.AgentRequest, title, data)
}

// AgentTransitionHandler applies an agent action to a request. Unknown variants and
// actions outside the transition table leave the request untouched.
func AgentTransitionHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)

	variant, ok := models.ParseVariant(c.Param("variant"))
	if !ok {
		return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_variant"), agentRequestsPath)
	}
	action, ok := services.ParseRequestAction(c.FormValue("action"))
	if !ok {
		return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_action"), agentRequestsPath)
	}

	request, err := services.TransitionCivilRequest(conn, variant, c.Param("id"), action,
		middleware.GetCurrentUser(c), c.FormValue("commentaire"), middleware.GetAuditContext(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.access_denied"), "/")
		case errors.Is(err, services.ErrRequestNotFound), errors.Is(err, services.ErrUnknownVariant):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.request_not_found"), agentRequestsPath)
		case errors.Is(err, services.ErrInvalidAction), errors.Is(err, services.ErrInvalidTransition):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_action"), agentRequestsPath)
		case services.ValidationProblems(err) != nil:
			to := fmt.Sprintf("%s%s/%s/", agentRequestsPath, variant, c.Param("id"))
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.reject_reason_required"), to)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update request")
	}

	notifier(c).RequestStatusChanged(request)

	msg := tr(c, "flash.transition_applied", map[string]interface{}{
		"reference": request.ReferenceNumber,
		"status":    models.RequestStatusLabel(request.Status),
	})
	return flashRedirect(c, middleware.FlashSuccess, msg, agentRequestPath(request))
}

// IdentityDocumentHandler streams the identity document attached to a request
func IdentityDocumentHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	variant, ok := models.ParseVariant(c.Param("variant"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	request, err := services.GetCivilRequest(conn, variant, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load request")
	}
	if request.IDDocumentKey == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), request.IDDocumentKey)
	if err != nil {
		logger.L().Error("failed to read identity document", "reference", request.ReferenceNumber, "error", err)
		return echo.NewHTTPError(http.StatusNotFound)
	}
	defer reader.Close()

	services.LogAuditEvent(conn, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionDownload,
		ResourceType: models.AuditResourceCivilRequest,
		ResourceID:   request.ID,
		ResourceName: request.ReferenceNumber,
		Description:  "Pièce d'identité consultée",
	})

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", request.IDDocumentName))
	return c.Stream(http.StatusOK, contentType, reader)
}

// RegisterExportHandler downloads the civil register of a year as a spreadsheet
func RegisterExportHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	year := time.Now().Year()
	if raw := c.QueryParam("annee"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > year+1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Année invalide")
		}
		year = parsed
	}

	buf, err := services.ExportCivilRegister(c.Request().Context(), conn, year)
	if err != nil {
		logger.L().Error("failed to export register", "year", year, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export register")
	}

	services.LogAuditEvent(conn, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionExport,
		ResourceType: models.AuditResourceRegister,
		ResourceID:   strconv.Itoa(year),
		Description:  fmt.Sprintf("Export du registre %d", year),
	})

	name := services.RegisterExportFileName(middleware.GetMairie(c).SchemaName, year)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
