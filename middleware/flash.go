package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// FlashCookieName is the cookie carrying messages across a redirect
const FlashCookieName = "mairie_flash"

const contextKeyPendingFlashes = "pending_flashes"

// Flash levels
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// AddFlash queues a message for the next page the browser renders
func AddFlash(c echo.Context, level, message string) {
	pending, _ := c.Get(contextKeyPendingFlashes).([]Flash)
	pending = append(pending, Flash{Level: level, Message: message})
	c.Set(contextKeyPendingFlashes, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}

	setFlashCookie(c, base64.RawURLEncoding.EncodeToString(raw), 0)
}

// ConsumeFlashes returns the messages carried by the request and clears the cookie
func ConsumeFlashes(c echo.Context) []Flash {
	var flashes []Flash
	cookie, err := c.Cookie(FlashCookieName)
	hasCookie := err == nil && cookie.Value != ""
	if hasCookie {
		if raw, err := base64.RawURLEncoding.DecodeString(cookie.Value); err == nil {
			_ = json.Unmarshal(raw, &flashes)
		}
	}
	pending, _ := c.Get(contextKeyPendingFlashes).([]Flash)
	flashes = append(flashes, pending...)
	c.Set(contextKeyPendingFlashes, nil)

	if hasCookie || len(pending) > 0 {
		setFlashCookie(c, "", -1)
	}
	return flashes
}

// setFlashCookie replaces any flash cookie already written to the response
func setFlashCookie(c echo.Context, value string, maxAge int) {
	header := c.Response().Header()
	cookies := header.Values("Set-Cookie")
	header.Del("Set-Cookie")
	for _, v := range cookies {
		if !strings.HasPrefix(v, FlashCookieName+"=") {
			header.Add("Set-Cookie", v)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     FlashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}
