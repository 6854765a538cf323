package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

// UpdateProfileRequest carries the editable profile fields. Empty strings
// clear the corresponding field (avatar removal works this way)
type UpdateProfileRequest struct {
	Bio            string `json:"bio" binding:"max=1000"`
	Location       string `json:"location" binding:"max=255"`
	TwitterURL     string `json:"twitterUrl" binding:"omitempty,url"`
	GithubURL      string `json:"githubUrl" binding:"omitempty,url"`
	LinkedinURL    string `json:"linkedinUrl" binding:"omitempty,url"`
	WebsiteURL     string `json:"websiteUrl" binding:"omitempty,url"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarFilename string `json:"avatarFilename"`
}

func (s *Server) getPublicProfile(c *gin.Context) {
	var user models.User
	if err := s.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, s.profileResponse(&user))
}

func (s *Server) updateProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	updates := map[string]interface{}{
		"bio":             req.Bio,
		"location":        req.Location,
		"twitter_url":     req.TwitterURL,
		"github_url":      req.GithubURL,
		"linkedin_url":    req.LinkedinURL,
		"website_url":     req.WebsiteURL,
		"avatar_url":      req.AvatarURL,
		"avatar_filename": req.AvatarFilename,
	}

	// Stamp first completion
	if user.ProfileCompletedAt == nil {
		now := time.Now()
		updates["profile_completed_at"] = &now
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		respondError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	// Reload for fresh values
	if err := s.db.Where("id = ?", user.ID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to reload user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Profile updated")

	c.JSON(http.StatusOK, s.profileResponse(&user))
}
