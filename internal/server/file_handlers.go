package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safepost/safepost/internal/uploads"
)

func (s *Server) uploadFile(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "Missing file field")
			return
		}

		stored, err := s.uploadsService.Store(c.Request.Context(), kind, sessionData.UserID, header)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, stored)
	}
}

func (s *Server) serveFile(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := c.Param("filename")

		path, err := s.uploadsService.Path(kind, filename)
		if err != nil {
			if errors.Is(err, uploads.ErrNotFound) {
				respondError(c, http.StatusNotFound, "File not found")
				return
			}
			respondError(c, http.StatusInternalServerError, "Failed to load file")
			return
		}

		// Stored filenames are content-addressed, safe to cache aggressively
		c.Header("Cache-Control", "max-age=31536000")
		c.Header("Content-Type", uploads.ContentTypeFor(filename))
		c.File(path)
	}
}

func (s *Server) deleteFile(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.uploadsService.Delete(c.Request.Context(), kind, c.Param("filename")); err != nil {
			if errors.Is(err, uploads.ErrNotFound) {
				respondError(c, http.StatusNotFound, "File not found")
				return
			}
			respondError(c, http.StatusInternalServerError, "Failed to delete file")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
