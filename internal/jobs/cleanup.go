package jobs

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/events"
)

// CleanupJob removes raw events that aged out of the retention period.
type CleanupJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run deletes events older than the retention period in batches so the
// database is never locked for long stretches.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.EventsRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff", cutoff))

	deleted, err := events.DeleteEventsOlderThan(j.dbManager, j.logger, cutoff, 1000)
	if err != nil {
		j.logger.Error("Failed to delete old events",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", deleted))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old events to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old events",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
