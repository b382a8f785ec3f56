package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retainDays.
func StartCleanup(db *gorm.DB, retainDays int, done chan struct{}) {
	if retainDays <= 0 {
		retainDays = 30
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				purgeLogs(db, time.Now().AddDate(0, 0, -retainDays))
			case <-done:
				return
			}
		}
	}()
}

func purgeLogs(db *gorm.DB, cutoff time.Time) int64 {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
