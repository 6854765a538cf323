package workers

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/posts"
	"github.com/safepost/safepost/internal/tasks"
)

// HandlePostViewed increments the view counter for the post named in the
// task payload. A post deleted between enqueue and handling is not a failure
func HandlePostViewed(ctx context.Context, task *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParsePostViewedPayload(task)
	if err != nil {
		return err
	}

	service := posts.NewService(db, logger)
	if err := service.IncrementViewCount(ctx, payload.PostID); err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			logger.Debug().Str("post_id", payload.PostID).Msg("Post gone before view count update")
			return nil
		}
		logger.Error().Err(err).Str("post_id", payload.PostID).Msg("Failed to increment view count")
		return err
	}

	return nil
}
