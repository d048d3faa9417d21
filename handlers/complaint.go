package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

const agentComplaintsPath = "/services/agent/reclamations/"

// ComplaintFormHandler renders the complaint form
func ComplaintFormHandler(c echo.Context) error {
	categories, err := services.ListComplaintCategories(middleware.GetTenantDB(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load categories")
	}
	values := requesterValues(middleware.GetCurrentUser(c))
	data := pages.ComplaintFormData{Form: pages.Form{Values: values}, Categories: categories}
	return renderPage(c, http.StatusOK, pages.ComplaintForm, tr(c, "page.complaint_form"), data)
}

// ComplaintSubmitHandler stores a complaint and sends the browser to its tracking page
func ComplaintSubmitHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)

	rerender := func(problems []string) error {
		categories, err := services.ListComplaintCategories(conn)
		if err != nil {
			logger.L().Error("failed to list complaint categories", "error", err)
		}
		data := pages.ComplaintFormData{Form: pages.Form{Values: submittedValues(c), Problems: problems}, Categories: categories}
		return renderPage(c, http.StatusUnprocessableEntity, pages.ComplaintForm, tr(c, "page.complaint_form"), data)
	}

	if !captchaPassed(c) {
		return rerender([]string{tr(c, "flash.captcha_failed")})
	}

	photo, _ := c.FormFile("photo")
	complaint, err := services.SubmitComplaint(c.Request().Context(), conn, middleware.GetMairie(c).SchemaName, services.ComplaintInput{
		CategoryID:  c.FormValue("categorie"),
		AuthorID:    currentUserID(c),
		LastName:    c.FormValue("nom"),
		FirstName:   c.FormValue("prenom"),
		Phone:       c.FormValue("telephone"),
		Email:       c.FormValue("email"),
		Title:       c.FormValue("titre"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("localisation"),
	}, photo)
	if err != nil {
		if problems := services.ValidationProblems(err); problems != nil {
			return rerender(problems)
		}
		if errors.Is(err, services.ErrComplaintCategoryNotFound) {
			return rerender([]string{tr(c, "flash.form_errors")})
		}
		logger.L().Error("failed to submit complaint", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save complaint")
	}

	notifier(c).ComplaintSubmitted(complaint)

	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.complaint_submitted"),
		"/services/reclamation/suivi/"+complaint.TrackingToken+"/")
}

// ComplaintTrackingHandler shows a complaint from its tracking token; unknown tokens
// render the not-found state
func ComplaintTrackingHandler(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	data := pages.ComplaintData{Token: token}
	if token != "" {
		complaint, err := services.GetComplaintByToken(middleware.GetTenantDB(c), token)
		if err != nil && !errors.Is(err, services.ErrComplaintNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load complaint")
		}
		data.Complaint = complaint
	}
	return renderPage(c, http.StatusOK, pages.Complaint, tr(c, "page.complaint_tracking"), data)
}

// ComplaintLookupHandler turns the tracking form into a tracking page URL
func ComplaintLookupHandler(c echo.Context) error {
	token := strings.TrimSpace(c.FormValue("token"))
	if token == "" || strings.ContainsAny(token, "/?#") {
		return c.Redirect(http.StatusSeeOther, "/services/reclamation/suivi/")
	}
	return c.Redirect(http.StatusSeeOther, "/services/reclamation/suivi/"+token+"/")
}

// MyComplaintsHandler lists the complaints filed from the signed-in account
func MyComplaintsHandler(c echo.Context) error {
	complaints, err := services.ListComplaintsByAuthor(middleware.GetTenantDB(c), middleware.GetCurrentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load complaints")
	}
	return renderPage(c, http.StatusOK, pages.MyComplaints, tr(c, "page.my_complaints"), pages.MyComplaintsData{Complaints: complaints})
}

// AgentComplaintsHandler lists complaints for agents, newest first
func AgentComplaintsHandler(c echo.Context) error {
	status := c.QueryParam("statut")
	if !models.IsValidComplaintStatus(status) {
		status = ""
	}
	complaints, err := services.ListComplaints(middleware.GetTenantDB(c), status, 200)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load complaints")
	}
	data := pages.AgentComplaintsData{
		Status:     status,
		Complaints: complaints,
		Statuses:   models.AllComplaintStatuses,
		Priorities: models.AllComplaintPriorities,
	}
	return renderPage(c, http.StatusOK, pages.AgentComplaints, tr(c, "page.agent_complaints"), data)
}

// AgentComplaintUpdateHandler changes the status, priority or response of a complaint
func AgentComplaintUpdateHandler(c echo.Context) error {
	complaint, err := services.UpdateComplaint(middleware.GetTenantDB(c), c.Param("id"), services.ComplaintUpdate{
		Status:   c.FormValue("statut"),
		Priority: c.FormValue("priorite"),
		Response: c.FormValue("reponse"),
	}, middleware.GetCurrentUser(c), middleware.GetAuditContext(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.access_denied"), "/")
		case errors.Is(err, services.ErrComplaintNotFound):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.complaint_not_found"), agentComplaintsPath)
		case errors.Is(err, services.ErrInvalidComplaintStatus):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.complaint_invalid_status"), agentComplaintsPath)
		case services.ValidationProblems(err) != nil:
			return flashRedirect(c, middleware.FlashError, strings.Join(services.ValidationProblems(err), " "), agentComplaintsPath)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update complaint")
	}

	notifier(c).ComplaintUpdated(complaint)
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.complaint_updated"), agentComplaintsPath)
}

// ComplaintPhotoHandler streams the photo attached to a complaint
func ComplaintPhotoHandler(c echo.Context) error {
	complaint, err := services.GetComplaint(middleware.GetTenantDB(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load complaint")
	}
	if complaint.PhotoKey == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), complaint.PhotoKey)
	if err != nil {
		logger.L().Error("failed to read complaint photo", "id", complaint.ID, "error", err)
		return echo.NewHTTPError(http.StatusNotFound)
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", complaint.PhotoName))
	return c.Stream(http.StatusOK, contentType, reader)
}
