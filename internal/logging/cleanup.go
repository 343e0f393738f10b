package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartCleanup schedules deletion of system_logs older than retentionDays.
// The caller stops the returned scheduler on shutdown.
func StartCleanup(db *gorm.DB, schedule string, retentionDays int) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		deleted, err := PurgeBefore(db, time.Now().AddDate(0, 0, -retentionDays))
		if err != nil {
			slog.Error("log cleanup failed", "action", "logs.cleanup", "error", err.Error())
			return
		}
		if deleted > 0 {
			slog.Info("log cleanup completed", "action", "logs.cleanup", "deleted", deleted)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid log retention schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// PurgeBefore deletes log rows older than cutoff.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
