package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// CSRFFormField is the hidden form field carrying the token
const CSRFFormField = "csrf_token"

// CSRF protects state-changing form posts on the mairie site. Safe methods, such as the
// GET-only slot API, pass without a token.
func CSRF(secure bool) echo.MiddlewareFunc {
	return echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:" + CSRFFormField + ",header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// GetCSRFToken retrieves the CSRF token from the Echo context
// This token should be included in forms and AJAX requests
func GetCSRFToken(c echo.Context) string {
	token := c.Get("csrf")
	if token == nil {
		return ""
	}
	if tokenStr, ok := token.(string); ok {
		return tokenStr
	}
	return ""
}
