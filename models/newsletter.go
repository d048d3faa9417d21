package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsletterSubscription is an e-mail address registered for the mairie's newsletter
type NewsletterSubscription struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email            string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	LastName         string     `gorm:"size:100" json:"nom,omitempty"`
	FirstName        string     `gorm:"size:100" json:"prenom,omitempty"`
	IsActive         bool       `gorm:"not null;default:true" json:"actif"`
	UnsubscribeToken string     `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	UnsubscribedAt   *time.Time `json:"desinscrit_le,omitempty"`
}

// BeforeCreate hook to generate UUID, token and normalize the address
func (n *NewsletterSubscription) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.UnsubscribeToken == "" {
		n.UnsubscribeToken = uuid.New().String()
	}
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	return nil
}

// TableName specifies the table name for NewsletterSubscription model
func (NewsletterSubscription) TableName() string {
	return "newsletter_subscriptions"
}
