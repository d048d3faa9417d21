package services

import (
	"testing"

	"e_mairie_go/db"
	"e_mairie_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTenantDB opens an isolated in-memory mairie partition with every tenant table migrated
func setupTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:svc_"+uuid.New().String()+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.MigrateTenant(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// setupRegistryDB opens an isolated in-memory registry
func setupRegistryDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:reg_"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(db.RegistryModels()...))
	return conn
}

func createTestAgent(t *testing.T, conn *gorm.DB, role string) *models.User {
	t.Helper()
	user, err := RegisterUser(conn, RegistrationInput{
		FirstName: "Agent",
		LastName:  "Test",
		Email:     uuid.New().String()[:8] + "@mairie.example.cm",
		Phone:     "690000000",
		Password:  "MotDePasse-2026",
	}, role)
	require.NoError(t, err)
	return user
}
