package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ErrInvalidSlot is returned when a slot definition is inconsistent
var ErrInvalidSlot = errors.New("invalid slot: weekday must be 0-5, times HH:MM with start before end, places_max >= 1")

// AvailableSlot is a recurring weekly time slot for an appointment type
type AvailableSlot struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AppointmentTypeID string `gorm:"type:uuid;not null;index:idx_slot_type_weekday" json:"type_rdv_id"`
	Weekday           int    `gorm:"not null;index:idx_slot_type_weekday" json:"jour_semaine"` // 0=Monday...5=Saturday
	StartTime         string `gorm:"size:5;not null" json:"heure_debut"`                       // "08:00"
	EndTime           string `gorm:"size:5;not null" json:"heure_fin"`                         // "08:45"
	PlacesMax         int    `gorm:"not null;default:1" json:"places_max"`
	IsActive          bool   `gorm:"not null;default:true" json:"actif"`

	AppointmentType AppointmentType `gorm:"foreignKey:AppointmentTypeID" json:"-"`
}

// BeforeCreate hook to generate UUID and reject inconsistent slots
func (s *AvailableSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return s.Validate()
}

// TableName specifies the table name for AvailableSlot model
func (AvailableSlot) TableName() string {
	return "available_slots"
}

// Validate checks weekday range, time format and capacity
func (s *AvailableSlot) Validate() error {
	if s.Weekday < 0 || s.Weekday > 5 {
		return ErrInvalidSlot
	}
	if !IsValidClock(s.StartTime) || !IsValidClock(s.EndTime) || s.StartTime >= s.EndTime {
		return ErrInvalidSlot
	}
	if s.PlacesMax < 1 {
		return ErrInvalidSlot
	}
	return nil
}

// DayName returns the French name of the slot's weekday
func (s *AvailableSlot) DayName() string {
	return WeekdayName(s.Weekday)
}

// WeekdayName returns the French day name for a Monday-based index
func WeekdayName(index int) string {
	days := []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}
	if index >= 0 && index < len(days) {
		return days[index]
	}
	return ""
}

// MondayIndex converts a time.Weekday to the 0=Monday...6=Sunday index
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// IsValidClock checks a zero-padded 24h "HH:MM" string
func IsValidClock(s string) bool {
	return clockPattern.MatchString(s)
}
