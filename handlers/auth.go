package handlers

import (
	"errors"
	"net/http"
	"strings"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// LoginHandler renders the sign-in page
func LoginHandler(c echo.Context) error {
	if middleware.GetCurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	data := pages.LoginData{Form: pages.Form{Values: pages.FormValues{"next": safeNext(c.QueryParam("next"))}}}
	return renderPage(c, http.StatusOK, pages.Login, tr(c, "page.login"), data)
}

// LoginPostHandler checks credentials and opens a session in the mairie partition
func LoginPostHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("mot_de_passe")
	next := safeNext(c.FormValue("next"))

	user, err := services.Authenticate(conn, email, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign in")
		}
		services.Monitor.TrackFailedLogin(c.RealIP())
		data := pages.LoginData{Form: pages.Form{
			Values:   pages.FormValues{"email": email, "next": next},
			Problems: []string{tr(c, "flash.login_failed")},
		}}
		return renderPage(c, http.StatusUnauthorized, pages.Login, tr(c, "page.login"), data)
	}

	session, err := services.CreateSession(conn, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}
	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)

	services.LogAuditEvent(conn, services.AuditContextForUser(user, c.RealIP(), c.Request().UserAgent()), services.AuditEntry{
		Action:       models.AuditActionLogin,
		ResourceType: models.AuditResourceUser,
		ResourceID:   user.ID,
		ResourceName: user.FullName(),
		Description:  "Connexion",
	})

	if next == "" {
		next = homeFor(user)
	}
	return c.Redirect(http.StatusSeeOther, next)
}

// homeFor is where an account lands after signing in
func homeFor(user *models.User) string {
	switch {
	case user.CanManageCivilRegistry():
		return "/etat-civil/agent/demandes/"
	case user.CanManageServices():
		return "/services/agent/rendez-vous/"
	default:
		return "/"
	}
}

// LogoutHandler ends the current session
func LogoutHandler(c echo.Context) error {
	if session := middleware.GetCurrentSession(c); session != nil {
		conn := middleware.GetTenantDB(c)
		if err := services.DeleteSession(conn, session.Token); err != nil {
			logger.L().Error("failed to delete session", "error", err)
		}
		services.LogAuditEvent(conn, middleware.GetAuditContext(c), services.AuditEntry{
			Action:       models.AuditActionLogout,
			ResourceType: models.AuditResourceUser,
			ResourceID:   session.UserID,
			Description:  "Déconnexion",
		})
	}
	middleware.ClearSessionCookie(c)
	return flashRedirect(c, middleware.FlashInfo, tr(c, "flash.logged_out"), "/")
}

// RegisterHandler renders the citizen sign-up page
func RegisterHandler(c echo.Context) error {
	if middleware.GetCurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return renderPage(c, http.StatusOK, pages.Register, tr(c, "page.register"), pages.RegisterData{})
}

// RegisterPostHandler creates a citizen account and signs it in
func RegisterPostHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)
	values := submittedValues(c)
	delete(values, "mot_de_passe")
	delete(values, "mot_de_passe_confirmation")

	rerender := func(problems []string) error {
		data := pages.RegisterData{Form: pages.Form{Values: values, Problems: problems}}
		return renderPage(c, http.StatusUnprocessableEntity, pages.Register, tr(c, "page.register"), data)
	}

	password := c.FormValue("mot_de_passe")
	if password != c.FormValue("mot_de_passe_confirmation") {
		return rerender([]string{tr(c, "flash.passwords_mismatch")})
	}

	user, err := services.RegisterUser(conn, services.RegistrationInput{
		FirstName: c.FormValue("prenom"),
		LastName:  c.FormValue("nom"),
		Email:     c.FormValue("email"),
		Phone:     c.FormValue("telephone"),
		Password:  password,
	}, models.RoleCitizen)
	if err != nil {
		if problems := services.ValidationProblems(err); problems != nil {
			return rerender(problems)
		}
		if errors.Is(err, services.ErrEmailTaken) {
			return rerender([]string{tr(c, "flash.email_taken")})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	session, err := services.CreateSession(conn, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}
	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)

	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.registered"), "/")
}
