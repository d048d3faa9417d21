package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"e_mairie_go/models"
	"e_mairie_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTenant(t *testing.T) {
	registry, router := setupRegistry(t)
	e := echo.New()

	mairie := &models.Mairie{Name: "Mairie de Bafoussam 1er", Code: "bafoussam-1", IsActive: true}
	require.NoError(t, services.RegisterMairie(registry, mairie, "bafoussam1.example.cm"))

	handler := ResolveTenant(registry, router)(func(c echo.Context) error {
		return c.String(http.StatusOK, GetMairie(c).Name)
	})

	t.Run("KnownHost", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "Bafoussam1.example.cm:8080"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Mairie de Bafoussam 1er", rec.Body.String())

		conn := GetTenantDB(c)
		require.NotNil(t, conn)
		assert.True(t, conn.Migrator().HasTable(&models.CivilRequest{}))
	})

	t.Run("UnknownHost", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "inconnu.example.cm"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
		assert.Nil(t, GetMairie(c))
		assert.Nil(t, GetTenantDB(c))
	})
}

func TestGetMairieMissing(t *testing.T) {
	c := echo.New().NewContext(nil, nil)
	assert.Nil(t, GetMairie(c))
	assert.Nil(t, GetTenantDB(c))
}
