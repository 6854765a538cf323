package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/config"
	"github.com/safepost/safepost/internal/tasks"
	"github.com/safepost/safepost/internal/uploads"
)

// HandleSweepUploads deletes cover and avatar images no longer referenced
// by any post or user profile
func HandleSweepUploads(ctx context.Context, _ *asynq.Task, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) error {
	service := uploads.NewService(db, cfg.Uploads.Dir, logger)

	removed, err := service.SweepOrphans(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Upload sweep failed")
		return err
	}

	logger.Info().Int("removed", removed).Msg("Upload sweep complete")
	return nil
}

// StartSweepScheduler runs a periodic check (every minute) and enqueues a
// sweep task whenever the configured cron schedule comes due
func StartSweepScheduler(client *asynq.Client, cfg *config.Config, logger zerolog.Logger) {
	schedule := parseSweepSchedule(cfg.Uploads.SweepSchedule)
	if schedule == nil {
		logger.Warn().
			Str("schedule", cfg.Uploads.SweepSchedule).
			Msg("No valid sweep schedule configured - upload sweeping disabled")
		return
	}

	next := schedule.Next(time.Now())
	logger.Info().
		Str("schedule", cfg.Uploads.SweepSchedule).
		Time("next_sweep_at", next).
		Msg("Upload sweep scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().Before(next) {
			continue
		}

		task, err := tasks.NewSweepUploadsTask()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create sweep task")
			continue
		}

		if _, err := client.Enqueue(task, asynq.Queue("low"), asynq.Timeout(10*time.Minute)); err != nil {
			logger.Error().Err(err).Msg("Failed to enqueue sweep task")
			continue
		}

		next = schedule.Next(time.Now())
		logger.Info().Time("next_sweep_at", next).Msg("Sweep task enqueued")
	}
}

// parseSweepSchedule parses a standard 5-field cron expression
func parseSweepSchedule(expr string) cron.Schedule {
	if expr == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil
	}
	return schedule
}
