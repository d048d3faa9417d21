package services

import (
	"fmt"
	"strings"

	"e_mairie_go/models"

	"gorm.io/gorm"
)

// ProfileInput holds the fields an account holder may edit on their profile
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	IDCardNo  string
}

// UpdateProfile saves the editable fields of user. Another account already using the
// address yields ErrEmailTaken.
func UpdateProfile(db *gorm.DB, user *models.User, input ProfileInput) (*models.User, error) {
	firstName := SanitizeText(input.FirstName)
	lastName := SanitizeText(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var problems []string
	if firstName == "" || lastName == "" {
		problems = append(problems, "Le nom et le prénom sont requis")
	}
	if !IsValidEmail(email) {
		problems = append(problems, "Adresse e-mail invalide")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if email != user.Email {
		var existing int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing > 0 {
			return nil, ErrEmailTaken
		}
	}

	updates := map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"phone":      SanitizeText(input.Phone),
		"address":    SanitizeText(input.Address),
		"id_card_no": SanitizeText(input.IDCardNo),
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	var updated models.User
	if err := db.First(&updated, "id = ?", user.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	LogSecurityEvent("PROFILE_UPDATED", user.ID, "profile edited")
	return &updated, nil
}
