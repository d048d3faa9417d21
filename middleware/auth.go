package middleware

import (
	"net/http"
	"net/url"
	"time"

	"e_mairie_go/config"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/i18n"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "mairie_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"

	// LoginPath is where anonymous visitors of protected pages are sent
	LoginPath = "/comptes/connexion/"
)

// LoadSession attaches the signed-in user, if any, without enforcing authentication.
// It must run after ResolveTenant since sessions live in the mairie partition.
func LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			conn := GetTenantDB(c)
			if conn == nil {
				return next(c)
			}

			session, err := services.ValidateSession(conn, cookie.Value)
			if err != nil {
				ClearSessionCookie(c)
				return next(c)
			}
			if session.Renewed {
				SetSessionCookie(c, session.Token, session.ExpiresAt)
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)
			return next(c)
		}
	}
}

// RequireAuth is middleware that requires a signed-in account
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetCurrentUser(c) == nil {
				AddFlash(c, FlashInfo, i18n.Translate(GetLocale(c), "flash.login_required"))
				return redirect(c, loginPathFor(c))
			}
			return next(c)
		}
	}
}

// RequireCapability lets through accounts for which allowed returns true.
// Everyone else is sent home with an access-denied message.
func RequireCapability(allowed func(*models.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				AddFlash(c, FlashInfo, i18n.Translate(GetLocale(c), "flash.login_required"))
				return redirect(c, loginPathFor(c))
			}
			if !allowed(user) {
				AddFlash(c, FlashError, i18n.Translate(GetLocale(c), "flash.access_denied"))
				return redirect(c, "/")
			}
			return next(c)
		}
	}
}

// CanManageCivilRegistry is the capability guarding agent civil-registry pages
func CanManageCivilRegistry(u *models.User) bool { return u.CanManageCivilRegistry() }

// CanManageServices is the capability guarding agent appointment and complaint pages
func CanManageServices(u *models.User) bool { return u.CanManageServices() }

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentSession retrieves the current session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionCookie writes the session cookie after a successful login
func SetSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get("config").(*config.Config)
	return ok && cfg.Environment == "production"
}

// loginPathFor sends the visitor back to the page they asked for once signed in
func loginPathFor(c echo.Context) string {
	req := c.Request()
	if req.Method != http.MethodGet || req.URL.Path == "/" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(req.URL.RequestURI())
}

// redirect honours htmx requests the way full page loads are redirected
func redirect(c echo.Context, to string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, to)
}
