package services

import (
	"fmt"
	"time"

	"e_mairie_go/models"

	"gorm.io/gorm"
)

// SlotAvailability is an open slot start time with its remaining capacity
type SlotAvailability struct {
	Time      string `json:"heure"`
	Remaining int    `json:"places_restantes"`
}

// ParseAppointmentDate parses a "YYYY-MM-DD" date in local time
func ParseAppointmentDate(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, time.Local)
}

// ComputeAvailableSlots lists the slot start times of an appointment type that still have
// capacity on date. Sundays, closed days and dates without slot definitions yield an empty,
// non-nil list.
func ComputeAvailableSlots(db *gorm.DB, appointmentTypeID string, date time.Time) ([]SlotAvailability, error) {
	available := []SlotAvailability{}

	weekday := models.MondayIndex(date.Weekday())
	if weekday > 5 {
		return available, nil
	}

	closed, err := IsDateBlocked(db, appointmentTypeID, date.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	if closed {
		return available, nil
	}

	slots, err := GetSlotsForWeekday(db, appointmentTypeID, weekday)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return available, nil
	}

	booked, err := countConfirmedByTime(db, appointmentTypeID, date.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}

	for _, slot := range slots {
		if confirmed := booked[slot.StartTime]; confirmed < int64(slot.PlacesMax) {
			available = append(available, SlotAvailability{
				Time:      slot.StartTime,
				Remaining: slot.PlacesMax - int(confirmed),
			})
		}
	}
	return available, nil
}

// GetSlotsForWeekday fetches the active slot definitions of a type for a Monday-based weekday
func GetSlotsForWeekday(db *gorm.DB, appointmentTypeID string, weekday int) ([]models.AvailableSlot, error) {
	var slots []models.AvailableSlot
	err := db.Where("appointment_type_id = ? AND weekday = ? AND is_active = ?", appointmentTypeID, weekday, true).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	return slots, nil
}

// GetSlotsForType fetches every active slot definition of a type, by weekday then time
func GetSlotsForType(db *gorm.DB, appointmentTypeID string) ([]models.AvailableSlot, error) {
	var slots []models.AvailableSlot
	err := db.Where("appointment_type_id = ? AND is_active = ?", appointmentTypeID, true).
		Order("weekday ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

// countConfirmedByTime returns the number of confirmed appointments per start time on a date
func countConfirmedByTime(db *gorm.DB, appointmentTypeID, date string) (map[string]int64, error) {
	var rows []struct {
		Time  string `gorm:"column:appointment_time"`
		Total int64
	}
	err := db.Model(&models.Appointment{}).
		Select("appointment_time, COUNT(*) AS total").
		Where("appointment_type_id = ? AND appointment_date = ? AND status = ?", appointmentTypeID, date, models.AppointmentStatusConfirmed).
		Group("appointment_time").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Time] = r.Total
	}
	return counts, nil
}

// CreateSlot adds a weekly slot to an appointment type
func CreateSlot(db *gorm.DB, slot *models.AvailableSlot) error {
	if err := slot.Validate(); err != nil {
		return err
	}
	return db.Create(slot).Error
}

// BlockDate closes a day for one appointment type, or for every type when appointmentTypeID is nil.
// Appointments already booked on that day are kept.
func BlockDate(db *gorm.DB, date string, appointmentTypeID *string, reason string, agent *models.User) (*models.BlockedDate, error) {
	if agent == nil || !agent.CanManageServices() {
		return nil, ErrNotAuthorized
	}
	if _, err := ParseAppointmentDate(date); err != nil {
		return nil, &ValidationError{Problems: []string{"Date invalide"}}
	}
	if appointmentTypeID != nil {
		if _, err := GetAppointmentType(db, *appointmentTypeID); err != nil {
			return nil, err
		}
	}

	agentID := agent.ID
	blocked := &models.BlockedDate{
		Date:              date,
		AppointmentTypeID: appointmentTypeID,
		Reason:            SanitizeText(reason),
		CreatedByID:       &agentID,
	}
	if err := db.Create(blocked).Error; err != nil {
		return nil, fmt.Errorf("failed to block date: %w", err)
	}
	return blocked, nil
}

// UnblockDate reopens a closed day
func UnblockDate(db *gorm.DB, id string, agent *models.User) error {
	if agent == nil || !agent.CanManageServices() {
		return ErrNotAuthorized
	}
	return db.Where("id = ?", id).Delete(&models.BlockedDate{}).Error
}

// IsDateBlocked reports whether a closure covers the appointment type on date (YYYY-MM-DD)
func IsDateBlocked(db *gorm.DB, appointmentTypeID, date string) (bool, error) {
	var closures []models.BlockedDate
	if err := db.Where("blocked_date = ?", date).Find(&closures).Error; err != nil {
		return false, fmt.Errorf("failed to check closures: %w", err)
	}
	for i := range closures {
		if closures[i].Blocks(appointmentTypeID) {
			return true, nil
		}
	}
	return false, nil
}

// ListUpcomingBlockedDates returns the closures on or after from, in date order
func ListUpcomingBlockedDates(db *gorm.DB, from string) ([]models.BlockedDate, error) {
	var blocked []models.BlockedDate
	err := db.Preload("AppointmentType").
		Where("blocked_date >= ?", from).
		Order("blocked_date ASC").
		Find(&blocked).Error
	return blocked, err
}
