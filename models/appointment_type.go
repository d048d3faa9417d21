package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Municipal services an appointment type belongs to
const (
	ServiceCivilRegistry = "etat_civil"
	ServiceUrbanism      = "urbanisme"
	ServiceSocial        = "social"
	ServiceGeneral       = "general"
)

// AppointmentType is a bookable municipal service ("Légalisation", "Dépôt de dossier de mariage")
type AppointmentType struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name            string `gorm:"size:200;not null" json:"nom"`
	Description     string `gorm:"type:text" json:"description,omitempty"`
	DurationMinutes int    `gorm:"not null;default:30" json:"duree_minutes"`
	Service         string `gorm:"size:30;not null;default:general;index" json:"service"`
	IsActive        bool   `gorm:"not null;default:true;index" json:"actif"`

	Slots []AvailableSlot `gorm:"foreignKey:AppointmentTypeID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (at *AppointmentType) BeforeCreate(tx *gorm.DB) error {
	if at.ID == "" {
		at.ID = uuid.New().String()
	}
	if at.DurationMinutes <= 0 {
		at.DurationMinutes = 30
	}
	return nil
}

// TableName specifies the table name
func (AppointmentType) TableName() string {
	return "appointment_types"
}

// DefaultAppointmentTypes are created for every newly registered mairie
var DefaultAppointmentTypes = []struct {
	Name            string
	Description     string
	DurationMinutes int
	Service         string
}{
	{"Retrait d'acte d'état civil", "Retrait d'un acte prêt au guichet de l'état civil", 15, ServiceCivilRegistry},
	{"Dépôt de dossier de mariage", "Constitution et dépôt du dossier de mariage", 45, ServiceCivilRegistry},
	{"Légalisation de documents", "Légalisation de signatures et copies conformes", 15, ServiceGeneral},
	{"Permis de bâtir", "Renseignements et dépôt de demande de permis de bâtir", 30, ServiceUrbanism},
}

// CreateDefaultAppointmentTypes creates the default types with weekday morning slots
func CreateDefaultAppointmentTypes(db *gorm.DB) error {
	for _, t := range DefaultAppointmentTypes {
		apt := &AppointmentType{
			Name:            t.Name,
			Description:     t.Description,
			DurationMinutes: t.DurationMinutes,
			Service:         t.Service,
			IsActive:        true,
		}
		if err := db.Create(apt).Error; err != nil {
			return err
		}
		for weekday := 0; weekday <= 4; weekday++ {
			for _, start := range []string{"08:00", "09:00", "10:00", "11:00"} {
				slot := &AvailableSlot{
					AppointmentTypeID: apt.ID,
					Weekday:           weekday,
					StartTime:         start,
					EndTime:           start[:2] + ":45",
					PlacesMax:         3,
					IsActive:          true,
				}
				if err := db.Create(slot).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}
