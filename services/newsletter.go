package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"e_mairie_go/metrics"
	"e_mairie_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadySubscribed    = errors.New("email already subscribed")
	ErrSubscriptionNotFound = errors.New("newsletter subscription not found")
)

// SubscribeNewsletter registers an address, reactivating it when it had unsubscribed
func SubscribeNewsletter(db *gorm.DB, email, lastName, firstName string) (*models.NewsletterSubscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return nil, &ValidationError{Problems: []string{"Adresse e-mail invalide"}}
	}

	var sub models.NewsletterSubscription
	err := db.Where("email = ?", email).First(&sub).Error
	switch {
	case err == nil:
		if sub.IsActive {
			return nil, ErrAlreadySubscribed
		}
		updates := map[string]interface{}{"is_active": true, "unsubscribed_at": nil}
		if err := db.Model(&sub).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to reactivate subscription: %w", err)
		}
		sub.IsActive = true
		sub.UnsubscribedAt = nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.NewsletterSubscription{
			Email:     email,
			LastName:  SanitizeText(lastName),
			FirstName: SanitizeText(firstName),
			IsActive:  true,
		}
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}

	metrics.NewsletterSubscriptions.Inc()
	return &sub, nil
}

// UnsubscribeNewsletter deactivates the subscription owning token. Repeating it is harmless.
func UnsubscribeNewsletter(db *gorm.DB, token string) (*models.NewsletterSubscription, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrSubscriptionNotFound
	}
	var sub models.NewsletterSubscription
	if err := db.Where("unsubscribe_token = ?", token).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if !sub.IsActive {
		return &sub, nil
	}
	now := time.Now()
	if err := db.Model(&sub).Updates(map[string]interface{}{"is_active": false, "unsubscribed_at": now}).Error; err != nil {
		return nil, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	sub.IsActive = false
	sub.UnsubscribedAt = &now
	return &sub, nil
}

// ListActiveSubscribers returns the addresses currently subscribed
func ListActiveSubscribers(db *gorm.DB) ([]models.NewsletterSubscription, error) {
	var subs []models.NewsletterSubscription
	err := db.Where("is_active = ?", true).Order("created_at ASC").Find(&subs).Error
	return subs, err
}
