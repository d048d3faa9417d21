package jobs

import (
	"time"

	"e_mairie_go/config"
	"e_mairie_go/db"
	"e_mairie_go/logger"
	"e_mairie_go/models"
	"e_mairie_go/services"

	"gorm.io/gorm"
)

// SendAppointmentReminders e-mails every citizen booked for the day after now, in every mairie
func SendAppointmentReminders(registry *gorm.DB, router *db.TenantRouter, cfg *config.Config, now time.Time) {
	day := now.AddDate(0, 0, 1).Format(models.DateLayout)
	total := 0
	err := router.Each(registry, func(m models.Mairie, conn *gorm.DB) error {
		sent, err := SendTenantReminders(conn, &m, cfg, day)
		total += sent
		return err
	})
	if err != nil {
		logger.L().Error("Appointment reminders incomplete", "date", day, "error", err)
	}
	logger.L().Info("Appointment reminder job completed", "date", day, "sent", total)
}

// SendTenantReminders sends the reminders of one mairie for day (YYYY-MM-DD).
// Each appointment is stamped before the e-mail goes out so it is reminded at most once.
func SendTenantReminders(conn *gorm.DB, mairie *models.Mairie, cfg *config.Config, day string) (int, error) {
	appointments, err := services.AppointmentsDueForReminder(conn, day)
	if err != nil {
		return 0, err
	}

	notifier := services.NewNotifier(cfg, mairie, MairieBaseURL(mairie, cfg), "")
	sent := 0
	for i := range appointments {
		apt := &appointments[i]
		claimed, err := services.MarkReminderSent(conn, apt.ID)
		if err != nil {
			logger.L().Error("Failed to stamp reminder", "mairie", mairie.Code, "appointment", apt.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		email := services.BuildAppointmentReminderEmail(apt.Email, notifier.AppointmentData(apt), notifier.Lang)
		if err := services.SendEmail(cfg, email); err != nil {
			logger.L().Error("Failed to send reminder", "mairie", mairie.Code, "appointment", apt.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// CleanupSessions removes expired sessions in every mairie
func CleanupSessions(registry *gorm.DB, router *db.TenantRouter) {
	var total int64
	err := router.Each(registry, func(m models.Mairie, conn *gorm.DB) error {
		n, err := services.CleanupExpiredSessions(conn)
		total += n
		return err
	})
	if err != nil {
		logger.L().Error("Session cleanup incomplete", "error", err)
		return
	}
	if total > 0 {
		logger.L().Info("Expired sessions removed", "count", total)
	}
}

// MairieBaseURL is the public address of a mairie: its primary domain, else APP_URL
func MairieBaseURL(m *models.Mairie, cfg *config.Config) string {
	for _, d := range m.Domains {
		if d.IsPrimary {
			return "https://" + d.Domain
		}
	}
	if cfg != nil {
		return cfg.AppURL
	}
	return ""
}
