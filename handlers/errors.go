package handlers

import (
	"errors"
	"net/http"
	"strings"

	"e_mairie_go/logger"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders errors as portal pages, or as JSON on the API routes
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := ""
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && m != http.StatusText(code) {
			message = m
		}
	}

	if code >= http.StatusInternalServerError {
		logger.L().Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		message = tr(c, "page.server_error")
	}

	title := tr(c, "page.error")
	if code == http.StatusNotFound {
		title = tr(c, "page.not_found")
	}
	if message == "" {
		message = title
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/services/api/") {
		_ = c.JSON(code, map[string]string{"error": message})
		return
	}

	if rerr := renderPage(c, code, pages.Message, title, pages.MessageData{Code: code, Message: message}); rerr != nil {
		logger.L().Error("failed to render error page", "error", rerr)
	}
}
