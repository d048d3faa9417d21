package db

import (
	"fmt"
	"strings"

	"e_mairie_go/config"
	"e_mairie_go/logger"
	"e_mairie_go/models"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the shared registry database holding mairies and their domains
var DB *gorm.DB

// RegistryModels live in the shared registry database
func RegistryModels() []interface{} {
	return []interface{}{
		&models.Mairie{},
		&models.Domaine{},
	}
}

// TenantModels live in every mairie partition
func TenantModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.ReferenceCounter{},
		&models.CivilRequest{},
		&models.BirthDetails{},
		&models.MarriageDetails{},
		&models.DeathDetails{},
		&models.FamilyBookletDetails{},
		&models.AppointmentType{},
		&models.AvailableSlot{},
		&models.Appointment{},
		&models.BlockedDate{},
		&models.ComplaintCategory{},
		&models.Complaint{},
		&models.NewsletterSubscription{},
		&models.AuditLog{},
	}
}

// Initialize opens the registry database for the configured driver
func Initialize(cfg *config.Config) error {
	dsn := cfg.DBPath
	if cfg.DBDriver != config.DriverSQLite {
		dsn = cfg.DatabaseURL
	}
	if cfg.DBDriver == config.DriverLibSQL {
		dsn = withAuthToken(dsn, cfg.TursoAuthToken)
	}
	if dsn == "" {
		return fmt.Errorf("no registry database configured for driver %s", cfg.DBDriver)
	}

	var err error
	DB, err = Open(cfg.DBDriver, dsn, cfg.Environment)
	if err != nil {
		return err
	}

	logger.L().Info("Registry database connection established", "driver", cfg.DBDriver)
	return nil
}

// Open connects to a database with the dialector matching driver
func Open(driver, dsn, environment string) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Determine log level based on environment
	logLevel := gormlogger.Info
	if environment == "production" {
		logLevel = gormlogger.Warn
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Dialector returns the gorm dialector for a driver name
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.Open(withWAL(dsn)), nil
	case config.DriverLibSQL:
		return sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn}), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// AutoMigrate runs registry migrations
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := DB.AutoMigrate(RegistryModels()...); err != nil {
		return fmt.Errorf("failed to run registry migrations: %w", err)
	}
	logger.L().Info("Registry migrations completed")
	return nil
}

// MigrateTenant creates or updates the tables of a mairie partition
func MigrateTenant(conn *gorm.DB) error {
	if err := conn.AutoMigrate(TenantModels()...); err != nil {
		return fmt.Errorf("failed to run tenant migrations: %w", err)
	}
	return nil
}

// Close closes the registry database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

// withWAL enables WAL mode and a busy timeout on file databases
func withWAL(dsn string) string {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, "_journal_mode") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

func withAuthToken(dsn, token string) string {
	if token == "" || strings.Contains(dsn, "authToken=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "authToken=" + token
}
