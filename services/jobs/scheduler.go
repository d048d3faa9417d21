package jobs

import (
	"time"

	"e_mairie_go/config"
	"e_mairie_go/db"
	"e_mairie_go/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Location is the timezone the mairies work in
const Location = "Africa/Douala"

// StartScheduler schedules the appointment reminders (REMINDER_CRON) and an hourly
// session cleanup across every mairie partition. The caller stops the returned cron.
func StartScheduler(registry *gorm.DB, router *db.TenantRouter, cfg *config.Config) (*cron.Cron, error) {
	loc, err := time.LoadLocation(Location)
	if err != nil {
		logger.L().Warn("Timezone unavailable, using local time", "zone", Location, "error", err)
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.ReminderCron, func() {
		logger.L().Info("[CRON] Sending appointment reminders")
		SendAppointmentReminders(registry, router, cfg, time.Now().In(loc))
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@hourly", func() {
		CleanupSessions(registry, router)
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.L().Info("[CRON] Scheduler started", "reminders", cfg.ReminderCron, "zone", loc.String())
	return c, nil
}
