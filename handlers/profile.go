package handlers

import (
	"errors"
	"net/http"

	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

const profilePath = "/comptes/profil/"

// ProfileHandler renders the signed-in account's profile form
func ProfileHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	data := pages.ProfileData{Form: pages.Form{Values: pages.FormValues{
		"prenom":    user.FirstName,
		"nom":       user.LastName,
		"email":     user.Email,
		"telephone": user.Phone,
		"adresse":   user.Address,
		"cni":       user.IDCardNo,
	}}}
	return renderPage(c, http.StatusOK, pages.Profile, tr(c, "page.profile"), data)
}

// ProfilePostHandler saves the profile form of the signed-in account
func ProfilePostHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	user := middleware.GetCurrentUser(c)

	rerender := func(problems []string) error {
		data := pages.ProfileData{Form: pages.Form{Values: submittedValues(c), Problems: problems}}
		return renderPage(c, http.StatusUnprocessableEntity, pages.Profile, tr(c, "page.profile"), data)
	}

	updated, err := services.UpdateProfile(conn, user, services.ProfileInput{
		FirstName: c.FormValue("prenom"),
		LastName:  c.FormValue("nom"),
		Email:     c.FormValue("email"),
		Phone:     c.FormValue("telephone"),
		Address:   c.FormValue("adresse"),
		IDCardNo:  c.FormValue("cni"),
	})
	if err != nil {
		if problems := services.ValidationProblems(err); problems != nil {
			return rerender(problems)
		}
		if errors.Is(err, services.ErrEmailTaken) {
			return rerender([]string{tr(c, "flash.email_taken")})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}

	services.LogAuditEvent(conn, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionUpdate,
		ResourceType: models.AuditResourceUser,
		ResourceID:   updated.ID,
		ResourceName: updated.FullName(),
		Description:  "Profil mis à jour",
	})
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.profile_updated"), profilePath)
}
