package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "likes_service").Logger(),
	}
}

// Status is the wire shape for like state: the authoritative count plus
// whether the calling user has liked the post
type Status struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// Toggle flips the user's like on a post inside a transaction and returns
// the authoritative state. The server is the source of truth; clients that
// guessed optimistically overwrite their guess with this result
func (s *Service) Toggle(ctx context.Context, postID, userID string) (*Status, error) {
	var status Status

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var like models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			status.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like = models.PostLike{PostID: postID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			status.Liked = true
		default:
			return err
		}

		return tx.Model(&models.PostLike{}).
			Where("post_id = ?", postID).
			Count(&status.LikesCount).Error
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("post_id", postID).Str("user_id", userID).Msg("Failed to toggle like")
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	s.logger.Debug().
		Str("post_id", postID).
		Str("user_id", userID).
		Bool("liked", status.Liked).
		Int64("likes_count", status.LikesCount).
		Msg("Like toggled")

	return &status, nil
}

// StatusFor returns the like count for a post and, when userID is non-empty,
// whether that user has liked it
func (s *Service) StatusFor(ctx context.Context, postID, userID string) (*Status, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", postID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	var status Status
	err := s.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Count(&status.LikesCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	if userID != "" {
		var liked int64
		err := s.db.WithContext(ctx).Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&liked).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check like: %w", err)
		}
		status.Liked = liked > 0
	}

	return &status, nil
}
