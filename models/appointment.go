package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the wire and storage format of appointment dates
const DateLayout = "2006-01-02"

// Appointment status constants
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
)

// Appointment is a citizen booking at a municipal service
type Appointment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Public access token (confirmation and cancel links)
	Token string `gorm:"type:uuid;uniqueIndex;not null" json:"token"`

	AppointmentTypeID string          `gorm:"type:uuid;not null;index:idx_appointment_slot" json:"type_rdv_id"`
	AppointmentType   AppointmentType `gorm:"foreignKey:AppointmentTypeID" json:"type_rdv,omitempty"`

	// Citizen account, optional for anonymous bookings
	CitizenID *string `gorm:"type:uuid;index" json:"citoyen_id,omitempty"`
	Citizen   *User   `gorm:"foreignKey:CitizenID" json:"-"`

	LastName  string `gorm:"size:100;not null" json:"nom"`
	FirstName string `gorm:"size:100;not null" json:"prenom"`
	Phone     string `gorm:"size:20;not null" json:"telephone"`
	Email     string `gorm:"size:255" json:"email,omitempty"`

	Date   string `gorm:"column:appointment_date;size:10;not null;index:idx_appointment_slot" json:"date"` // "2025-03-17"
	Time   string `gorm:"column:appointment_time;size:5;not null;index:idx_appointment_slot" json:"heure"` // "09:00"
	Reason string `gorm:"type:text" json:"motif,omitempty"`
	Status string `gorm:"size:20;not null;default:confirmed;index" json:"statut"`

	AgentNotes     string     `gorm:"type:text" json:"notes_agent,omitempty"`
	ReminderSentAt *time.Time `json:"rappel_envoye_le,omitempty"`
}

// BeforeCreate hook to generate UUID and token
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Token == "" {
		a.Token = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusConfirmed
	}
	return nil
}

// TableName specifies the table name for Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// IsValidAppointmentStatus checks if the status is valid
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted, AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsCancellable checks if the appointment can still be cancelled
func (a *Appointment) IsCancellable() bool {
	return a.Status == AppointmentStatusConfirmed
}

// FullName returns "First Last"
func (a *Appointment) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Day parses the appointment date
func (a *Appointment) Day() (time.Time, error) {
	return time.Parse(DateLayout, a.Date)
}

// AppointmentStatusLabel returns the French label of a status
func AppointmentStatusLabel(status string) string {
	switch status {
	case AppointmentStatusConfirmed:
		return "Confirmé"
	case AppointmentStatusCancelled:
		return "Annulé"
	case AppointmentStatusCompleted:
		return "Effectué"
	case AppointmentStatusNoShow:
		return "Absent"
	}
	return status
}
