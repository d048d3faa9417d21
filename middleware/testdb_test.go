package middleware

import (
	"testing"

	"e_mairie_go/config"
	"e_mairie_go/db"
	"e_mairie_go/models"
	"e_mairie_go/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:mw_"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.MigrateTenant(conn))
	return conn
}

func setupRegistry(t *testing.T) (*gorm.DB, *db.TenantRouter) {
	t.Helper()
	registry, err := gorm.Open(sqlite.Open("file:mwreg_"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, registry.AutoMigrate(db.RegistryModels()...))

	router := db.NewTenantRouter(&config.Config{
		DBDriver:          config.DriverSQLite,
		TenantDSNTemplate: "file:mw_" + uuid.New().String()[:8] + "_{schema}?mode=memory&cache=shared",
		Environment:       "production",
	})
	t.Cleanup(func() { _ = router.Close() })
	return registry, router
}

func createTestUser(t *testing.T, conn *gorm.DB, role string) *models.User {
	t.Helper()
	user, err := services.RegisterUser(conn, services.RegistrationInput{
		FirstName: "Paul",
		LastName:  "Mbarga",
		Email:     uuid.New().String()[:8] + "@example.cm",
		Password:  "MotDePasse-2026",
	}, role)
	require.NoError(t, err)
	return user
}
