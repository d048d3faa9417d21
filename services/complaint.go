package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/metrics"
	"e_mairie_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrComplaintNotFound         = errors.New("complaint not found")
	ErrComplaintCategoryNotFound = errors.New("complaint category not found")
	ErrInvalidComplaintStatus    = errors.New("invalid complaint status change")
)

// ComplaintInput holds a complaint form submission
type ComplaintInput struct {
	CategoryID  string
	AuthorID    *string
	LastName    string
	FirstName   string
	Phone       string
	Email       string
	Title       string
	Description string
	Location    string
}

// ComplaintUpdate holds an agent update on a complaint
type ComplaintUpdate struct {
	Status   string
	Priority string
	Response string
}

// ListComplaintCategories returns the active categories by name
func ListComplaintCategories(db *gorm.DB) ([]models.ComplaintCategory, error) {
	var categories []models.ComplaintCategory
	err := db.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error
	return categories, err
}

// SubmitComplaint validates and stores a complaint, with an optional photo
func SubmitComplaint(ctx context.Context, db *gorm.DB, schema string, input ComplaintInput, photo *multipart.FileHeader) (*models.Complaint, error) {
	complaint := &models.Complaint{
		CategoryID:  strings.TrimSpace(input.CategoryID),
		AuthorID:    input.AuthorID,
		LastName:    SanitizeText(input.LastName),
		FirstName:   SanitizeText(input.FirstName),
		Phone:       SanitizeText(input.Phone),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Title:       SanitizeText(input.Title),
		Description: SanitizeMultiline(input.Description),
		Location:    SanitizeText(input.Location),
	}

	var problems []string
	if complaint.LastName == "" || complaint.FirstName == "" {
		problems = append(problems, "Le nom et le prénom sont requis")
	}
	if complaint.Phone == "" {
		problems = append(problems, "Le téléphone est requis")
	}
	if complaint.Email != "" && !IsValidEmail(complaint.Email) {
		problems = append(problems, "Adresse e-mail invalide")
	}
	if complaint.Title == "" {
		problems = append(problems, "L'objet de la réclamation est requis")
	}
	if complaint.Description == "" {
		problems = append(problems, "La description est requise")
	}
	if photo != nil {
		if err := ValidatePhoto(photo); err != nil {
			problems = append(problems, "La photo doit être une image JPEG, PNG ou WebP de moins de 5 Mo")
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if _, err := uuid.Parse(complaint.CategoryID); err != nil {
		return nil, ErrComplaintCategoryNotFound
	}
	var category models.ComplaintCategory
	if err := db.Where("id = ? AND is_active = ?", complaint.CategoryID, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintCategoryNotFound
		}
		return nil, err
	}

	if photo != nil && Storage != nil {
		result, err := Storage.Upload(ctx, photo, ComplaintPhotoKey(schema, photo.Filename))
		if err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		complaint.PhotoKey = result.Key
		complaint.PhotoName = SanitizeText(photo.Filename)
	}

	if err := db.Create(complaint).Error; err != nil {
		if complaint.PhotoKey != "" {
			_ = Storage.Delete(ctx, complaint.PhotoKey)
		}
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	complaint.Category = category
	metrics.ComplaintsSubmitted.Inc()
	logger.L().Info("Complaint submitted", "category", category.Name, "id", complaint.ID)
	return complaint, nil
}

// GetComplaintByToken loads a complaint from its tracking token
func GetComplaintByToken(db *gorm.DB, token string) (*models.Complaint, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrComplaintNotFound
	}
	var complaint models.Complaint
	if err := db.Preload("Category").Where("tracking_token = ?", token).First(&complaint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

// GetComplaint loads a complaint by id
func GetComplaint(db *gorm.DB, id string) (*models.Complaint, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrComplaintNotFound
	}
	var complaint models.Complaint
	if err := db.Preload("Category").Preload("HandlingAgent").First(&complaint, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

// ListComplaintsByAuthor returns the complaints filed from a citizen account
func ListComplaintsByAuthor(db *gorm.DB, userID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := db.Preload("Category").Where("author_id = ?", userID).Order("created_at DESC").Find(&complaints).Error
	return complaints, err
}

// ListComplaints returns complaints for agents, optionally filtered by status
func ListComplaints(db *gorm.DB, status string, limit int) ([]models.Complaint, error) {
	query := db.Preload("Category").Model(&models.Complaint{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit <= 0 {
		limit = 100
	}
	var complaints []models.Complaint
	err := query.Order("created_at DESC").Limit(limit).Find(&complaints).Error
	return complaints, err
}

// UpdateComplaint applies an agent update. Statuses only move forward and closed is final;
// the update matches the status it was decided on.
func UpdateComplaint(db *gorm.DB, id string, update ComplaintUpdate, agent *models.User, audit AuditContext) (*models.Complaint, error) {
	if agent == nil || !agent.CanManageServices() {
		return nil, ErrNotAuthorized
	}
	complaint, err := GetComplaint(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"handling_agent_id": agent.ID}
	if update.Status != "" && update.Status != complaint.Status {
		if !models.CanMoveComplaint(complaint.Status, update.Status) {
			return nil, ErrInvalidComplaintStatus
		}
		updates["status"] = update.Status
		if update.Status == models.ComplaintStatusResolved || update.Status == models.ComplaintStatusClosed {
			updates["processed_at"] = time.Now()
		}
	}
	if update.Priority != "" {
		if !models.IsValidComplaintPriority(update.Priority) {
			return nil, &ValidationError{Problems: []string{"Priorité invalide"}}
		}
		updates["priority"] = update.Priority
	}
	if response := SanitizeMultiline(update.Response); response != "" {
		updates["response"] = response
	}

	previous := complaint.Status
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Complaint{}).Where("id = ? AND status = ?", complaint.ID, previous).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update complaint: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidComplaintStatus
		}
		return RecordAudit(tx, audit, AuditEntry{
			Action:       models.AuditActionUpdate,
			ResourceType: models.AuditResourceComplaint,
			ResourceID:   complaint.ID,
			ResourceName: complaint.Title,
			OldValues:    map[string]string{"status": previous, "priority": complaint.Priority},
			NewValues:    updates,
		})
	})
	if err != nil {
		return nil, err
	}

	return GetComplaint(db, id)
}
