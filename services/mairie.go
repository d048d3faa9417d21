package services

import (
	"errors"
	"fmt"
	"strings"

	"e_mairie_go/models"

	"gorm.io/gorm"
)

// ResolveMairieByHost maps a request host (with or without port) to its active mairie
func ResolveMairieByHost(db *gorm.DB, host string) (*models.Mairie, error) {
	normalized := models.NormalizeHost(host)
	if normalized == "" {
		return nil, ErrUnknownTenant
	}

	var domaine models.Domaine
	err := db.Preload("Mairie").Where("domain = ?", normalized).First(&domaine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTenant
		}
		return nil, fmt.Errorf("failed to resolve host %s: %w", normalized, err)
	}
	// Preload skips soft-deleted mairies, leaving a zero value
	if domaine.Mairie.ID == "" || !domaine.Mairie.IsActive {
		return nil, ErrUnknownTenant
	}
	return &domaine.Mairie, nil
}

// RegisterMairie creates a mairie and its primary domain in the registry
func RegisterMairie(db *gorm.DB, mairie *models.Mairie, domain string) error {
	if strings.TrimSpace(mairie.Name) == "" || strings.TrimSpace(mairie.Code) == "" {
		return &ValidationError{Problems: []string{"Le nom et le code de la mairie sont requis"}}
	}
	if mairie.SchemaName == "" {
		mairie.SchemaName = models.SchemaNameFromCode(mairie.Code)
	}
	if !models.IsValidSchemaName(mairie.SchemaName) {
		return &ValidationError{Problems: []string{fmt.Sprintf("Nom de schéma invalide: %q", mairie.SchemaName)}}
	}
	host := models.NormalizeHost(domain)
	if host == "" {
		return &ValidationError{Problems: []string{"Le domaine est requis"}}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mairie).Error; err != nil {
			return fmt.Errorf("failed to create mairie: %w", err)
		}
		d := &models.Domaine{Domain: host, MairieID: mairie.ID, IsPrimary: true}
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("failed to create domain: %w", err)
		}
		mairie.Domains = []models.Domaine{*d}
		return nil
	})
}

// AddDomain maps an extra hostname to an existing mairie
func AddDomain(db *gorm.DB, mairieID, domain string) (*models.Domaine, error) {
	d := &models.Domaine{Domain: models.NormalizeHost(domain), MairieID: mairieID}
	if d.Domain == "" {
		return nil, &ValidationError{Problems: []string{"Le domaine est requis"}}
	}
	if err := db.Create(d).Error; err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}
	return d, nil
}

// SeedTenantDefaults creates the default appointment types, slots and complaint
// categories of a freshly migrated partition. Partitions that already have data are left alone.
func SeedTenantDefaults(db *gorm.DB) error {
	if err := EnsureDefaultAppointmentTypes(db); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.ComplaintCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, c := range models.DefaultComplaintCategories {
			category := c
			if err := db.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to seed complaint categories: %w", err)
			}
		}
	}
	return nil
}
