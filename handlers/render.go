package handlers

import (
	"net/http"
	"strings"

	"e_mairie_go/config"
	"e_mairie_go/logger"
	"e_mairie_go/metrics"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/i18n"
	"e_mairie_go/templates/pages"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func render(c echo.Context, component templ.Component) error {
	return component.Render(c.Request().Context(), c.Response().Writer)
}

// renderPage writes a full portal page. The page is built before the status is
// written so consumed flash cookies still reach the response headers.
func renderPage(c echo.Context, status int, name, title string, data interface{}) error {
	page := newPage(c, title, data)
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return render(c, pages.Render(name, page))
}

func newPage(c echo.Context, title string, data interface{}) pages.Page {
	page := pages.Page{
		Title:   title,
		Lang:    middleware.GetLocale(c),
		Mairie:  middleware.GetMairie(c),
		User:    middleware.GetCurrentUser(c),
		CSRF:    middleware.GetCSRFToken(c),
		Nonce:   middleware.GetNonce(c.Request().Context()),
		Flashes: middleware.ConsumeFlashes(c),
		Data:    data,
	}
	if cfg := appConfig(c); cfg != nil && cfg.TurnstileSecretKey != "" {
		page.TurnstileSiteKey = cfg.TurnstileSiteKey
	}
	return page
}

func appConfig(c echo.Context) *config.Config {
	cfg, _ := c.Get("config").(*config.Config)
	return cfg
}

// tr translates key in the visitor's language
func tr(c echo.Context, key string, args ...map[string]interface{}) string {
	return i18n.Translate(middleware.GetLocale(c), key, args...)
}

// flashRedirect queues a flash message and sends the browser to another page
func flashRedirect(c echo.Context, level, message, to string) error {
	middleware.AddFlash(c, level, message)
	return c.Redirect(http.StatusSeeOther, to)
}

// notifier sends mail in the visitor's language with links on the host they used
func notifier(c echo.Context) *services.Notifier {
	baseURL := c.Scheme() + "://" + c.Request().Host
	return services.NewNotifier(appConfig(c), middleware.GetMairie(c), baseURL, middleware.GetLocale(c))
}

// captchaPassed verifies the Turnstile answer when a secret key is configured
func captchaPassed(c echo.Context) bool {
	cfg := appConfig(c)
	if cfg == nil || cfg.TurnstileSecretKey == "" {
		return true
	}
	token := c.FormValue("cf-turnstile-response")
	err := services.VerifyTurnstileToken(c.Request().Context(), token, cfg.TurnstileSecretKey, c.RealIP(),
		models.NormalizeHost(c.Request().Host))
	if err != nil {
		metrics.CaptchaFailures.Inc()
		logger.L().Info("captcha refused", "path", c.Path(), "error", err)
		return false
	}
	return true
}

// currentUserID returns the signed-in account id, nil for anonymous visitors
func currentUserID(c echo.Context) *string {
	if user := middleware.GetCurrentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// submittedValues keeps the posted fields so a rejected form is shown again filled in
func submittedValues(c echo.Context) pages.FormValues {
	params, err := c.FormParams()
	if err != nil {
		return pages.FormValues{}
	}
	values := pages.FormValuesFrom(params)
	delete(values, middleware.CSRFFormField)
	return values
}

// requesterValues pre-fills identity fields from the signed-in account
func requesterValues(user *models.User) pages.FormValues {
	values := pages.FormValues{}
	if user != nil {
		values["nom"] = user.LastName
		values["prenom"] = user.FirstName
		values["telephone"] = user.Phone
		values["email"] = user.Email
	}
	return values
}

// safeNext accepts only local paths as post-login destinations
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return ""
}
