package db

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"e_mairie_go/config"
	"e_mairie_go/logger"
	"e_mairie_go/models"

	"gorm.io/gorm"
)

// SchemaPlaceholder is replaced by the mairie schema name in TENANT_DSN_TEMPLATE
const SchemaPlaceholder = "{schema}"

// ErrInvalidSchema is returned for partition names that are not safe identifiers
var ErrInvalidSchema = errors.New("invalid mairie schema name")

// Tenants routes queries to the partition of each mairie
var Tenants *TenantRouter

// TenantRouter opens, migrates and caches one connection per mairie partition.
// sqlite and libsql partitions are separate databases built from a DSN template;
// postgres partitions are schemas of the registry database selected through search_path.
type TenantRouter struct {
	driver      string
	template    string
	databaseURL string
	authToken   string
	environment string

	// Seed runs once on every partition after migration, when set
	Seed func(conn *gorm.DB) error

	mu    sync.Mutex
	conns map[string]*gorm.DB
}

// NewTenantRouter builds a router from the application configuration
func NewTenantRouter(cfg *config.Config) *TenantRouter {
	return &TenantRouter{
		driver:      cfg.DBDriver,
		template:    cfg.TenantDSNTemplate,
		databaseURL: cfg.DatabaseURL,
		authToken:   cfg.TursoAuthToken,
		environment: cfg.Environment,
		conns:       make(map[string]*gorm.DB),
	}
}

// For returns the database of a mairie's partition, opening and migrating it on first use
func (r *TenantRouter) For(m *models.Mairie) (*gorm.DB, error) {
	return r.ForSchema(m.SchemaName)
}

// ForSchema returns the database of the partition named schema
func (r *TenantRouter) ForSchema(schema string) (*gorm.DB, error) {
	if !models.IsValidSchemaName(schema) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[schema]; ok {
		return conn, nil
	}

	conn, err := r.open(schema)
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", schema, err)
	}
	if err := MigrateTenant(conn); err != nil {
		return nil, fmt.Errorf("migrate partition %s: %w", schema, err)
	}
	if r.Seed != nil {
		if err := r.Seed(conn); err != nil {
			return nil, fmt.Errorf("seed partition %s: %w", schema, err)
		}
	}

	r.conns[schema] = conn
	logger.L().Info("Mairie partition ready", "schema", schema, "driver", r.driver)
	return conn, nil
}

// Attach registers an already opened partition connection
func (r *TenantRouter) Attach(schema string, conn *gorm.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[schema] = conn
}

// Each runs fn against every active mairie partition. Errors are logged and
// the first one is returned after all partitions have been visited.
func (r *TenantRouter) Each(registry *gorm.DB, fn func(m models.Mairie, conn *gorm.DB) error) error {
	var mairies []models.Mairie
	if err := registry.Preload("Domains").Where("is_active = ?", true).Order("code ASC").Find(&mairies).Error; err != nil {
		return fmt.Errorf("list mairies: %w", err)
	}

	var firstErr error
	for _, m := range mairies {
		conn, err := r.For(&m)
		if err == nil {
			err = fn(m, conn)
		}
		if err != nil {
			logger.L().Error("Partition task failed", "mairie", m.Code, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes every open partition connection
func (r *TenantRouter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for schema, conn := range r.conns {
		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.conns, schema)
	}
	return firstErr
}

func (r *TenantRouter) open(schema string) (*gorm.DB, error) {
	switch r.driver {
	case config.DriverPostgres:
		return r.openPostgresSchema(schema)
	case config.DriverSQLite, config.DriverLibSQL:
		dsn, err := TenantDSN(r.template, schema)
		if err != nil {
			return nil, err
		}
		if r.driver == config.DriverSQLite {
			ensureParentDir(dsn)
		} else {
			dsn = withAuthToken(dsn, r.authToken)
		}
		return Open(r.driver, dsn, r.environment)
	}
	return nil, fmt.Errorf("unsupported database driver %q", r.driver)
}

// openPostgresSchema creates the schema if needed and opens a pool bound to it
func (r *TenantRouter) openPostgresSchema(schema string) (*gorm.DB, error) {
	if r.databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for postgres partitions")
	}

	admin := DB
	if admin == nil {
		var err error
		if admin, err = Open(config.DriverPostgres, r.databaseURL, r.environment); err != nil {
			return nil, err
		}
		defer func() {
			if sqlDB, err := admin.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
	}
	// schema has been validated against a strict identifier pattern
	if err := admin.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, schema)).Error; err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return Open(config.DriverPostgres, PostgresSchemaDSN(r.databaseURL, schema), r.environment)
}

// TenantDSN substitutes the schema name into a DSN template
func TenantDSN(template, schema string) (string, error) {
	if !strings.Contains(template, SchemaPlaceholder) {
		return "", fmt.Errorf("TENANT_DSN_TEMPLATE %q must contain %s", template, SchemaPlaceholder)
	}
	return strings.ReplaceAll(template, SchemaPlaceholder, schema), nil
}

// PostgresSchemaDSN adds a search_path runtime parameter to a URL or keyword/value DSN
func PostgresSchemaDSN(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return strings.TrimSpace(dsn) + " search_path=" + schema
}

func ensureParentDir(dsn string) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(dsn, "mode=memory") || path == ":memory:" {
		return
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.L().Warn("Could not create partition directory", "dir", dir, "error", err)
		}
	}
}
