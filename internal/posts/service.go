package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrForbidden = errors.New("not the post author")
)

type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "posts_service").Logger(),
	}
}

// ListParams filters the published-post listing. Empty fields are ignored
type ListParams struct {
	CategoryID string
	TagID      string
	Search     string
}

// CreateParams carries everything needed to create or replace a post
type CreateParams struct {
	Title                 string
	Content               string
	CategoryID            string
	TagIDs                []string
	Status                string
	CoverImageURL         string
	CoverImageFilename    string
	CoverImageSize        int64
	CoverImageContentType string
}

// List returns published posts, newest first, optionally filtered by
// category, tag, or a case-insensitive title/content search
func (s *Service) List(ctx context.Context, params ListParams) ([]models.Post, error) {
	query := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		Where("posts.status = ?", models.PostStatusPublished)

	if params.CategoryID != "" {
		query = query.Where("posts.category_id = ?", params.CategoryID)
	}

	if params.TagID != "" {
		query = query.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", params.TagID)
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", pattern, pattern)
	}

	var posts []models.Post
	if err := query.Order("posts.created_at DESC").Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list posts")
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// Get returns a single post with its author, category and tags preloaded
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return &post, nil
}

// Drafts returns the caller's draft posts, newest first
func (s *Service) Drafts(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("author_id = ? AND status = ?", authorID, models.PostStatusDraft).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		s.logger.Error().Err(err).Str("author_id", authorID).Msg("Failed to list drafts")
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return posts, nil
}

// Create creates a post for the given author
func (s *Service) Create(ctx context.Context, authorID string, params CreateParams) (*models.Post, error) {
	tags, err := s.loadTags(ctx, params.TagIDs)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Title:                 params.Title,
		Content:               params.Content,
		AuthorID:              authorID,
		CategoryID:            params.CategoryID,
		Status:                params.Status,
		ReadingTime:           models.ReadingTimeFor(params.Content),
		CoverImageURL:         params.CoverImageURL,
		CoverImageFilename:    params.CoverImageFilename,
		CoverImageSize:        params.CoverImageSize,
		CoverImageContentType: params.CoverImageContentType,
		Tags:                  tags,
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		s.logger.Error().Err(err).Str("author_id", authorID).Msg("Failed to create post")
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info().Str("post_id", post.ID).Str("author_id", authorID).Msg("Post created")

	return s.Get(ctx, post.ID)
}

// Update replaces a post's content. Only the author or an admin may update
func (s *Service) Update(ctx context.Context, id string, session SessionInfo, params CreateParams) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != session.UserID && !session.Admin {
		return nil, ErrForbidden
	}

	tags, err := s.loadTags(ctx, params.TagIDs)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":                    params.Title,
		"content":                  params.Content,
		"category_id":              params.CategoryID,
		"status":                   params.Status,
		"reading_time":             models.ReadingTimeFor(params.Content),
		"cover_image_url":          params.CoverImageURL,
		"cover_image_filename":     params.CoverImageFilename,
		"cover_image_size":         params.CoverImageSize,
		"cover_image_content_type": params.CoverImageContentType,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(post).Association("Tags").Replace(tags)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("post_id", id).Msg("Failed to update post")
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a post. Only the author or an admin may delete
func (s *Service) Delete(ctx context.Context, id string, session SessionInfo) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if post.AuthorID != session.UserID && !session.Admin {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Select("Tags").Delete(post).Error; err != nil {
		s.logger.Error().Err(err).Str("post_id", id).Msg("Failed to delete post")
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info().Str("post_id", id).Str("deleted_by", session.UserID).Msg("Post deleted")
	return nil
}

// IncrementViewCount bumps the view counter for a post. Called from the
// background worker so reads stay off the request path
func (s *Service) IncrementViewCount(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment view count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SessionInfo is the slice of the request session the service needs for
// ownership checks
type SessionInfo struct {
	UserID string
	Admin  bool
}

func (s *Service) loadTags(ctx context.Context, tagIDs []string) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, fmt.Errorf("one or more tags do not exist")
	}
	return tags, nil
}
