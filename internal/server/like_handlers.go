package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safepost/safepost/internal/likes"
)

func (s *Server) toggleLike(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status, err := s.likesService.Toggle(c.Request.Context(), c.Param("id"), sessionData.UserID)
	if err != nil {
		if errors.Is(err, likes.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to toggle like")
		return
	}

	c.JSON(http.StatusOK, status)
}

// getLikeStatus works for anonymous callers too; liked is always false
// without a session
func (s *Server) getLikeStatus(c *gin.Context) {
	userID := ""
	if sessionData, ok := GetSessionData(c); ok {
		userID = sessionData.UserID
	}

	status, err := s.likesService.StatusFor(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, likes.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to load like status")
		return
	}

	c.JSON(http.StatusOK, status)
}
