package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a signed-in browser inside one mairie partition
type Session struct {
	ID         string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`

	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null;size:128" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"type:text" json:"user_agent"`

	User User `gorm:"foreignKey:UserID" json:"-"`

	// Renewed is set when validation pushed ExpiresAt forward and the cookie must follow
	Renewed bool `gorm:"-" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.LastSeenAt.IsZero() {
		s.LastSeenAt = time.Now()
	}
	return nil
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// NeedsRenewal reports whether less than half of lifetime is left, so an active
// citizen is not signed out in the middle of a visit
func (s *Session) NeedsRenewal(lifetime time.Duration) bool {
	return time.Until(s.ExpiresAt) < lifetime/2
}
