package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"e_mairie_go/models"
	"e_mairie_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("SignedInAgent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()
		rec.Header().Set(echo.HeaderXRequestID, "req-42")
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUser, &models.User{ID: "user-123", FirstName: "Estelle", LastName: "Ndzi", Role: models.RoleCivilRegistryAgent})

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Equal(t, "user-123", auditCtx.UserID)
		assert.Equal(t, "Estelle Ndzi", auditCtx.UserName)
		assert.Equal(t, models.RoleCivilRegistryAgent, auditCtx.UserRole)
		assert.Equal(t, "test-agent", auditCtx.UserAgent)
		assert.NotEmpty(t, auditCtx.IPAddress)
		assert.Equal(t, "req-42", auditCtx.RequestID)
	})

	t.Run("Anonymous", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Empty(t, auditCtx.UserID)
		assert.Equal(t, "public", auditCtx.UserRole)
		assert.Empty(t, auditCtx.RequestID)
	})
}

func TestGetAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("Exists", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		expected := services.AuditContext{UserID: "123"}
		c.Set(ContextKeyAuditContext, expected)
		assert.Equal(t, expected, GetAuditContext(c))
	})

	t.Run("BuiltOnDemand", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(ContextKeyUser, &models.User{ID: "agent-1", Role: models.RoleMairieAdmin})
		assert.Equal(t, "agent-1", GetAuditContext(c).UserID)
	})
}
