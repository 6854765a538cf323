package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

// CategoryRequest represents a category create/rename request
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CategoryResponse includes the number of published posts per category
type CategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PostCount int64  `json:"postCount"`
}

func (s *Server) listCategories(c *gin.Context) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list categories")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		var count int64
		err := s.db.Model(&models.Post{}).
			Where("category_id = ? AND status = ?", category.ID, models.PostStatusPublished).
			Count(&count).Error
		if err != nil {
			s.logger.Warn().Err(err).Str("category_id", category.ID).Msg("Failed to count posts")
		}
		responses[i] = CategoryResponse{ID: category.ID, Name: category.Name, PostCount: count}
	}

	c.JSON(http.StatusOK, responses)
}

func (s *Server) createCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	category := models.Category{Name: req.Name}
	if err := s.db.Create(&category).Error; err != nil {
		respondError(c, http.StatusBadRequest, "Category already exists")
		return
	}

	s.logger.Info().Str("category_id", category.ID).Str("name", category.Name).Msg("Category created")
	c.JSON(http.StatusCreated, CategoryResponse{ID: category.ID, Name: category.Name})
}

func (s *Server) updateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var category models.Category
	if err := s.db.Where("id = ?", c.Param("id")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.db.Model(&category).Update("name", req.Name).Error; err != nil {
		respondError(c, http.StatusBadRequest, "Category name already in use")
		return
	}

	c.JSON(http.StatusOK, CategoryResponse{ID: category.ID, Name: req.Name})
}

func (s *Server) deleteCategory(c *gin.Context) {
	// Refuse to delete categories that still have posts
	var count int64
	if err := s.db.Model(&models.Post{}).Where("category_id = ?", c.Param("id")).Count(&count).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Category still has posts")
		return
	}

	result := s.db.Where("id = ?", c.Param("id")).Delete(&models.Category{})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Category not found")
		return
	}

	c.Status(http.StatusNoContent)
}
