package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

// CreateTagsRequest creates several tags at once; names that already exist
// are returned rather than duplicated
type CreateTagsRequest struct {
	Names []string `json:"names" binding:"required,min=1,dive,required,max=50"`
}

// TagResponse includes the number of published posts per tag
type TagResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PostCount int64  `json:"postCount"`
}

func (s *Server) listTags(c *gin.Context) {
	var tags []models.Tag
	if err := s.db.Order("name ASC").Find(&tags).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tags")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	responses := make([]TagResponse, len(tags))
	for i, tag := range tags {
		var count int64
		err := s.db.Model(&models.Post{}).
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ? AND posts.status = ?", tag.ID, models.PostStatusPublished).
			Count(&count).Error
		if err != nil {
			s.logger.Warn().Err(err).Str("tag_id", tag.ID).Msg("Failed to count posts")
		}
		responses[i] = TagResponse{ID: tag.ID, Name: tag.Name, PostCount: count}
	}

	c.JSON(http.StatusOK, responses)
}

func (s *Server) createTags(c *gin.Context) {
	var req CreateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	created := make([]TagResponse, 0, len(req.Names))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range req.Names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			var tag models.Tag
			err := tx.Where("name = ?", name).First(&tag).Error
			if err == gorm.ErrRecordNotFound {
				tag = models.Tag{Name: name}
				if err := tx.Create(&tag).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			created = append(created, TagResponse{ID: tag.ID, Name: tag.Name})
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create tags")
		respondError(c, http.StatusInternalServerError, "Failed to create tags")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteTag(c *gin.Context) {
	result := s.db.Where("id = ?", c.Param("id")).Delete(&models.Tag{})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Tag not found")
		return
	}

	c.Status(http.StatusNoContent)
}
