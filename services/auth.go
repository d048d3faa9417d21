package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (7 days)
	DefaultSessionDuration = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account already exists for this email")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// RegistrationInput holds the fields of the citizen sign-up form
type RegistrationInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// RegisterUser creates an account with the given role in a mairie partition
func RegisterUser(db *gorm.DB, input RegistrationInput, role string) (*models.User, error) {
	var problems []string
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		problems = append(problems, "Le nom et le prénom sont requis")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !IsValidEmail(email) {
		problems = append(problems, "Adresse e-mail invalide")
	}
	problems = append(problems, PasswordProblems(input.Password, role)...)
	if !models.IsValidRole(role) {
		problems = append(problems, "Rôle invalide")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: SanitizeText(input.FirstName),
		LastName:  SanitizeText(input.LastName),
		Email:     email,
		Phone:     SanitizeText(input.Phone),
		Password:  hash,
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials of an active account and stamps its last login
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !CheckPassword(password, user.Password) {
		LogSecurityEvent("LOGIN_FAILED", user.ID, "wrong password")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	return &user, nil
}

// CreateSession creates a new session for a user
func CreateSession(db *gorm.DB, userID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(DefaultSessionDuration),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession validates a session token and returns the session with its user
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	var session models.Session

	err := db.Preload("User").Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired() {
		db.Delete(&session)
		return nil, ErrSessionExpired
	}
	if !session.User.IsActive {
		return nil, ErrSessionNotFound
	}

	if session.NeedsRenewal(DefaultSessionDuration) {
		now := time.Now()
		session.ExpiresAt = now.Add(DefaultSessionDuration)
		session.LastSeenAt = now
		session.Renewed = true
		err := db.Model(&models.Session{}).Where("id = ?", session.ID).
			Updates(map[string]interface{}{"expires_at": session.ExpiresAt, "last_seen_at": now}).Error
		if err != nil {
			logger.L().Warn("failed to renew session", "session_id", session.ID, "error", err)
		}
	}

	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	if err := db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from a partition
func CleanupExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, userID, details string) {
	logger.L().Warn("Security event", "event", eventType, "user_id", userID, "details", details)
}
