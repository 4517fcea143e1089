// Package cron runs the background housekeeping jobs.
package cron

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"medtriage/config"
	"medtriage/utils"
)

// StartUploadCleanup schedules hourly removal of X-ray uploads older than the
// configured retention window. Returns the scheduler so main can stop it.
func StartUploadCleanup() *cron.Cron {
	logger := utils.GetLogger()
	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		cleanupUploads(logger)
	})
	if err != nil {
		logger.Error("Failed to schedule upload cleanup", zap.Error(err))
		return c
	}

	c.Start()
	logger.Info("Upload cleanup job scheduled",
		zap.Int("retention_hours", config.AppConfig.UploadRetentionHrs))
	return c
}

func cleanupUploads(logger *zap.Logger) {
	retention := time.Duration(config.AppConfig.UploadRetentionHrs) * time.Hour
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	cutoff := time.Now().Add(-retention)

	entries, err := os.ReadDir(config.AppConfig.UploadDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Upload cleanup: cannot read upload dir", zap.Error(err))
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(config.AppConfig.UploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Upload cleanup: failed to remove file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Upload cleanup removed stale files", zap.Int("count", removed))
	}
}
