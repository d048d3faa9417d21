package services

import (
	"errors"
	"fmt"

	"e_mairie_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListAppointmentTypes returns the active appointment types by name
func ListAppointmentTypes(db *gorm.DB) ([]models.AppointmentType, error) {
	var types []models.AppointmentType
	err := db.Where("is_active = ?", true).Order("name ASC").Find(&types).Error
	return types, err
}

// ListAppointmentTypesWithSlots returns every type with its weekly slots, for agents
func ListAppointmentTypesWithSlots(db *gorm.DB) ([]models.AppointmentType, error) {
	var types []models.AppointmentType
	err := db.Preload("Slots", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("weekday ASC, start_time ASC")
	}).Order("service ASC, name ASC").Find(&types).Error
	return types, err
}

// GetAppointmentType loads an active appointment type
func GetAppointmentType(db *gorm.DB, id string) (*models.AppointmentType, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentTypeNotFound
	}
	var t models.AppointmentType
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentTypeNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateAppointmentType validates and stores a new appointment type
func CreateAppointmentType(db *gorm.DB, aptType *models.AppointmentType) error {
	aptType.Name = SanitizeText(aptType.Name)
	aptType.Description = SanitizeMultiline(aptType.Description)
	if aptType.Name == "" {
		return &ValidationError{Problems: []string{"Le nom du type de rendez-vous est requis"}}
	}
	if aptType.DurationMinutes <= 0 {
		aptType.DurationMinutes = 30
	}
	if aptType.Service == "" {
		aptType.Service = models.ServiceGeneral
	}
	if err := db.Create(aptType).Error; err != nil {
		return fmt.Errorf("failed to create appointment type: %w", err)
	}
	return nil
}

// SetAppointmentTypeActive opens or closes a type to booking. Existing appointments are kept.
func SetAppointmentTypeActive(db *gorm.DB, id string, active bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAppointmentTypeNotFound
	}
	result := db.Model(&models.AppointmentType{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentTypeNotFound
	}
	return nil
}

// EnsureDefaultAppointmentTypes creates the default types and their slots when a partition has none
func EnsureDefaultAppointmentTypes(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.AppointmentType{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := models.CreateDefaultAppointmentTypes(db); err != nil {
		return fmt.Errorf("failed to seed appointment types: %w", err)
	}
	return nil
}
