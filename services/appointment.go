package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/metrics"
	"e_mairie_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSlotNotFound              = errors.New("no slot starts at this time for this appointment type and day")
	ErrSlotFull                  = errors.New("slot is fully booked")
	ErrDateInPast                = errors.New("appointment date is in the past")
	ErrAppointmentNotFound       = errors.New("appointment not found")
	ErrAppointmentTypeNotFound   = errors.New("appointment type not found")
	ErrAppointmentNotCancellable = errors.New("appointment can no longer be cancelled")
	ErrInvalidAppointmentStatus  = errors.New("invalid appointment status change")
	ErrDateClosed                = errors.New("the mairie takes no appointments on this date")
)

// BookingInput holds a booking form submission
type BookingInput struct {
	AppointmentTypeID string
	Date              string // YYYY-MM-DD
	Time              string // HH:MM, a slot start time
	CitizenID         *string
	LastName          string
	FirstName         string
	Phone             string
	Email             string
	Reason            string
}

// BookAppointment books a confirmed appointment. The slot definition row is locked for the
// duration of the capacity check and insert, so two bookings cannot take the last place.
func BookAppointment(db *gorm.DB, input BookingInput) (*models.Appointment, error) {
	var problems []string
	if strings.TrimSpace(input.LastName) == "" || strings.TrimSpace(input.FirstName) == "" {
		problems = append(problems, "Le nom et le prénom sont requis")
	}
	if strings.TrimSpace(input.Phone) == "" {
		problems = append(problems, "Le téléphone est requis")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != "" && !IsValidEmail(email) {
		problems = append(problems, "Adresse e-mail invalide")
	}
	date, err := ParseAppointmentDate(input.Date)
	if err != nil {
		problems = append(problems, "Date invalide")
	}
	if !models.IsValidClock(input.Time) {
		problems = append(problems, "Heure invalide")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	apptType, err := GetAppointmentType(db, input.AppointmentTypeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if date.Before(today) {
		return nil, ErrDateInPast
	}
	weekday := models.MondayIndex(date.Weekday())
	if weekday > 5 {
		metrics.BookingsRefused.WithLabelValues("no_slot").Inc()
		return nil, ErrSlotNotFound
	}
	closed, err := IsDateBlocked(db, apptType.ID, date.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	if closed {
		metrics.BookingsRefused.WithLabelValues("closed").Inc()
		return nil, ErrDateClosed
	}

	appointment := &models.Appointment{
		AppointmentTypeID: apptType.ID,
		CitizenID:         input.CitizenID,
		LastName:          SanitizeText(input.LastName),
		FirstName:         SanitizeText(input.FirstName),
		Phone:             SanitizeText(input.Phone),
		Email:             email,
		Date:              date.Format(models.DateLayout),
		Time:              input.Time,
		Reason:            SanitizeMultiline(input.Reason),
		Status:            models.AppointmentStatusConfirmed,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var slot models.AvailableSlot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("appointment_type_id = ? AND weekday = ? AND start_time = ? AND is_active = ?", apptType.ID, weekday, input.Time, true).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		var confirmed int64
		if err := tx.Model(&models.Appointment{}).
			Where("appointment_type_id = ? AND appointment_date = ? AND appointment_time = ? AND status = ?",
				apptType.ID, appointment.Date, appointment.Time, models.AppointmentStatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return fmt.Errorf("failed to count appointments: %w", err)
		}
		if confirmed >= int64(slot.PlacesMax) {
			return ErrSlotFull
		}

		return tx.Create(appointment).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotFull):
			metrics.BookingsRefused.WithLabelValues("full").Inc()
		case errors.Is(err, ErrSlotNotFound):
			metrics.BookingsRefused.WithLabelValues("no_slot").Inc()
		}
		return nil, err
	}

	appointment.AppointmentType = *apptType
	metrics.AppointmentsBooked.Inc()
	logger.L().Info("Appointment booked", "type", apptType.Name, "date", appointment.Date, "time", appointment.Time)
	return appointment, nil
}

// GetAppointmentByToken loads an appointment from its public token
func GetAppointmentByToken(db *gorm.DB, token string) (*models.Appointment, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrAppointmentNotFound
	}
	var appointment models.Appointment
	if err := db.Preload("AppointmentType").Where("token = ?", token).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// CancelAppointmentByToken lets a citizen cancel a confirmed appointment
func CancelAppointmentByToken(db *gorm.DB, token string) (*models.Appointment, error) {
	appointment, err := GetAppointmentByToken(db, token)
	if err != nil {
		return nil, err
	}

	result := db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, models.AppointmentStatusConfirmed).
		Update("status", models.AppointmentStatusCancelled)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAppointmentNotCancellable
	}

	appointment.Status = models.AppointmentStatusCancelled
	return appointment, nil
}

// UpdateAppointmentStatus records the outcome of a confirmed appointment (agent only)
func UpdateAppointmentStatus(db *gorm.DB, id, status, notes string, agent *models.User) (*models.Appointment, error) {
	if agent == nil || !agent.CanManageServices() {
		return nil, ErrNotAuthorized
	}
	switch status {
	case models.AppointmentStatusCompleted, models.AppointmentStatusNoShow, models.AppointmentStatusCancelled:
	default:
		return nil, ErrInvalidAppointmentStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}

	updates := map[string]interface{}{"status": status}
	if notes = SanitizeMultiline(notes); notes != "" {
		updates["agent_notes"] = notes
	}

	result := db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, models.AppointmentStatusConfirmed).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		db.Model(&models.Appointment{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return nil, ErrAppointmentNotFound
		}
		return nil, ErrInvalidAppointmentStatus
	}

	var appointment models.Appointment
	if err := db.Preload("AppointmentType").First(&appointment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ListAppointmentsByCitizen returns a citizen's appointments, most recent date first
func ListAppointmentsByCitizen(db *gorm.DB, userID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := db.Preload("AppointmentType").
		Where("citizen_id = ?", userID).
		Order("appointment_date DESC, appointment_time DESC").
		Find(&appointments).Error
	return appointments, err
}

// ListAppointmentsForDate returns the appointments of a day in time order
func ListAppointmentsForDate(db *gorm.DB, date string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := db.Preload("AppointmentType").
		Where("appointment_date = ?", date).
		Order("appointment_time ASC, last_name ASC").
		Find(&appointments).Error
	return appointments, err
}

// AppointmentsDueForReminder returns confirmed appointments on date with an e-mail and no reminder yet
func AppointmentsDueForReminder(db *gorm.DB, date string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := db.Preload("AppointmentType").
		Where("appointment_date = ? AND status = ? AND reminder_sent_at IS NULL AND email <> ''",
			date, models.AppointmentStatusConfirmed).
		Order("appointment_time ASC").
		Find(&appointments).Error
	return appointments, err
}

// MarkReminderSent stamps the reminder once; false means another run already did
func MarkReminderSent(db *gorm.DB, id string) (bool, error) {
	result := db.Model(&models.Appointment{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Update("reminder_sent_at", time.Now())
	return result.RowsAffected == 1, result.Error
}
