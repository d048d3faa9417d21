package middleware

import (
	"net/http"
	"strings"
	"time"

	"e_mairie_go/config"
	"e_mairie_go/services/i18n"

	"github.com/labstack/echo/v4"
)

// LangCookieName persists the visitor's language choice
const LangCookieName = "lang"

// Locale middleware handles language detection and persistence.
// Priority:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. Default ("fr")
func Locale(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := c.QueryParam("lang")
			if lang != "" {
				lang = normalizeLang(lang)
				setLanguageCookie(c, lang, cfg.Environment == "production")
			} else if cookie, err := c.Cookie(LangCookieName); err == nil {
				lang = normalizeLang(cookie.Value)
			}

			if lang == "" {
				lang = fromAcceptLanguage(c.Request().Header.Get("Accept-Language"))
			}

			c.Set("locale", lang)
			c.SetRequest(c.Request().WithContext(i18n.WithLocale(c.Request().Context(), lang)))

			return next(c)
		}
	}
}

func normalizeLang(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en":
		return "en"
	default:
		return i18n.DefaultLang
	}
}

// fromAcceptLanguage picks the first supported language in header order
func fromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case strings.HasPrefix(tag, "fr"):
			return "fr"
		case strings.HasPrefix(tag, "en"):
			return "en"
		}
	}
	return i18n.DefaultLang
}

// SetLanguageCookie sets the language cookie
func SetLanguageCookie(c echo.Context, lang string) {
	setLanguageCookie(c, normalizeLang(lang), isProduction(c))
}

func setLanguageCookie(c echo.Context, lang string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Expires:  time.Now().Add(24 * 365 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetLocale returns the current locale from context
func GetLocale(c echo.Context) string {
	if lang, ok := c.Get("locale").(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLang
}
