package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// MinSessionSecretLength is the minimum required length for session secret in production
	MinSessionSecretLength = 32
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLibSQL   = "libsql"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	// Database. The registry database holds mairies and their domains;
	// each mairie gets its own partition (file, libsql database or postgres schema).
	DBDriver          string
	DBPath            string
	DatabaseURL       string
	TenantDSNTemplate string // must contain {schema} for sqlite and libsql
	TursoAuthToken    string
	UploadDir         string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	// Other
	AppURL        string
	SessionSecret string
	ReminderCron  string
	ChromePath    string
	// Cloudflare Turnstile on public forms, disabled when the secret is empty
	TurnstileSiteKey   string
	TurnstileSecretKey string
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	sessionSecret := getEnv("SESSION_SECRET", "")

	// Validate session secret - this will fatal in production if invalid
	ValidateSessionSecret(sessionSecret, environment)

	if sessionSecret == "" && environment != "production" {
		sessionSecret = GenerateSecureSecret()
		log.Println("[INFO] Generated temporary session secret for development. Set SESSION_SECRET env var for persistence.")
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", DriverSQLite))

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        environment,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DBDriver:           driver,
		DBPath:             getEnv("DB_PATH", "data/registry.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		TenantDSNTemplate:  getEnv("TENANT_DSN_TEMPLATE", "data/mairies/{schema}.db"),
		TursoAuthToken:     getEnv("TURSO_AUTH_TOKEN", ""),
		UploadDir:          getEnv("UPLOAD_DIR", "static/uploads"),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "noreply@e-mairie.cm"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "e-Mairie"),
		EmailTestMode:      getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AppURL:             getEnv("APP_URL", "http://localhost:8080"),
		SessionSecret:      sessionSecret,
		ReminderCron:       getEnv("REMINDER_CRON", "0 8 * * *"),
		ChromePath:         getEnv("CHROME_PATH", ""),
		TurnstileSiteKey:   getEnv("TURNSTILE_SITE_KEY", ""),
		TurnstileSecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
		R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:      getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:  getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:       getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:        getEnv("R2_PUBLIC_URL", ""),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CRITICAL] %v", err)
	}
	return cfg
}

// Validate checks that the database settings can open the registry and every mairie partition
func (c *Config) Validate() error {
	var problems []error
	if !IsSupportedDriver(c.DBDriver) {
		problems = append(problems, fmt.Errorf("DB_DRIVER %q is not supported (use sqlite, postgres or libsql)", c.DBDriver))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required with the postgres driver"))
		}
	case DriverSQLite, DriverLibSQL:
		if !strings.Contains(c.TenantDSNTemplate, "{schema}") {
			problems = append(problems, errors.New("TENANT_DSN_TEMPLATE must contain {schema}"))
		}
	}
	if c.DBDriver == DriverLibSQL && c.DatabaseURL == "" {
		problems = append(problems, errors.New("DATABASE_URL is required with the libsql driver"))
	}
	if c.R2BucketName != "" && (c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "") {
		problems = append(problems, errors.New("R2_BUCKET_NAME needs R2_ACCOUNT_ID, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY"))
	}
	return errors.Join(problems...)
}

// IsSupportedDriver reports whether driver is one of the database drivers the portal can open
func IsSupportedDriver(driver string) bool {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverLibSQL:
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ValidateSessionSecret validates the session secret meets security requirements
// In production, it must be at least 32 bytes and not a known insecure default
func ValidateSessionSecret(secret string, environment string) error {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal("[CRITICAL] SESSION_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			log.Printf("[WARNING] SESSION_SECRET is set to an insecure default value. This is acceptable only in development.")
			return nil
		}
	}

	if environment == "production" && len(secret) < MinSessionSecretLength {
		log.Fatalf("[CRITICAL] SESSION_SECRET must be at least %d characters in production (current: %d). Generate with: openssl rand -base64 32", MinSessionSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret
// This is used only for development when no secret is provided
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("[WARNING] Failed to generate secure secret: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
