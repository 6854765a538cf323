package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/safepost/safepost/internal/auth"
	"github.com/safepost/safepost/internal/models"
	"github.com/safepost/safepost/internal/posts"
	"github.com/safepost/safepost/internal/tasks"
)

// CreatePostRequest represents a post creation or replacement request
type CreatePostRequest struct {
	Title                 string   `json:"title" binding:"required,max=255"`
	Content               string   `json:"content" binding:"required"`
	CategoryID            string   `json:"categoryId" binding:"required"`
	TagIDs                []string `json:"tagIds"`
	Status                string   `json:"status" binding:"required,oneof=DRAFT PUBLISHED"`
	CoverImageURL         string   `json:"coverImageUrl"`
	CoverImageFilename    string   `json:"coverImageFilename"`
	CoverImageSize        int64    `json:"coverImageSize"`
	CoverImageContentType string   `json:"coverImageContentType"`
}

// PostAuthor is the trimmed author shape embedded in post responses
type PostAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostResponse represents a post as returned to clients
type PostResponse struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Content               string          `json:"content"`
	Author                *PostAuthor     `json:"author,omitempty"`
	Category              models.Category `json:"category"`
	Tags                  []models.Tag    `json:"tags"`
	Status                string          `json:"status"`
	ReadingTime           int             `json:"readingTime"`
	ViewCount             int             `json:"viewCount"`
	CoverImageURL         string          `json:"coverImageUrl,omitempty"`
	CoverImageFilename    string          `json:"coverImageFilename,omitempty"`
	CoverImageSize        int64           `json:"coverImageSize,omitempty"`
	CoverImageContentType string          `json:"coverImageContentType,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func postResponse(post *models.Post) PostResponse {
	resp := PostResponse{
		ID:                    post.ID,
		Title:                 post.Title,
		Content:               post.Content,
		Category:              post.Category,
		Tags:                  post.Tags,
		Status:                post.Status,
		ReadingTime:           post.ReadingTime,
		ViewCount:             post.ViewCount,
		CoverImageURL:         post.CoverImageURL,
		CoverImageFilename:    post.CoverImageFilename,
		CoverImageSize:        post.CoverImageSize,
		CoverImageContentType: post.CoverImageContentType,
		CreatedAt:             post.CreatedAt,
		UpdatedAt:             post.UpdatedAt,
	}
	if post.Author != nil {
		resp.Author = &PostAuthor{ID: post.Author.ID, Name: post.Author.Name}
	}
	if resp.Tags == nil {
		resp.Tags = []models.Tag{}
	}
	return resp
}

func postResponses(list []models.Post) []PostResponse {
	responses := make([]PostResponse, len(list))
	for i := range list {
		responses[i] = postResponse(&list[i])
	}
	return responses
}

func (s *Server) listPosts(c *gin.Context) {
	list, err := s.postsService.List(c.Request.Context(), posts.ListParams{
		CategoryID: c.Query("categoryId"),
		TagID:      c.Query("tagId"),
		Search:     c.Query("search"),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	c.JSON(http.StatusOK, postResponses(list))
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.postsService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load post")
		respondError(c, http.StatusInternalServerError, "Failed to load post")
		return
	}

	// View counting happens off the request path
	if task, err := tasks.NewPostViewedTask(post.ID); err == nil {
		if _, err := s.asynqClient.Enqueue(task, asynq.Queue("low")); err != nil {
			s.logger.Debug().Err(err).Str("post_id", post.ID).Msg("Failed to enqueue view count task")
		}
	}

	c.JSON(http.StatusOK, postResponse(post))
}

func (s *Server) listDrafts(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	list, err := s.postsService.Drafts(c.Request.Context(), sessionData.UserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list drafts")
		return
	}

	c.JSON(http.StatusOK, postResponses(list))
}

func (s *Server) createPost(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	post, err := s.postsService.Create(c.Request.Context(), sessionData.UserID, createParams(req))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create post")
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, postResponse(post))
}

func (s *Server) updatePost(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	post, err := s.postsService.Update(c.Request.Context(), c.Param("id"), sessionInfo(sessionData), createParams(req))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, postResponse(post))
}

func (s *Server) deletePost(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := s.postsService.Delete(c.Request.Context(), c.Param("id"), sessionInfo(sessionData)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		respondError(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, posts.ErrForbidden):
		respondError(c, http.StatusForbidden, "You can only modify your own posts")
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func createParams(req CreatePostRequest) posts.CreateParams {
	return posts.CreateParams{
		Title:                 req.Title,
		Content:               req.Content,
		CategoryID:            req.CategoryID,
		TagIDs:                req.TagIDs,
		Status:                req.Status,
		CoverImageURL:         req.CoverImageURL,
		CoverImageFilename:    req.CoverImageFilename,
		CoverImageSize:        req.CoverImageSize,
		CoverImageContentType: req.CoverImageContentType,
	}
}

func sessionInfo(s *auth.SessionData) posts.SessionInfo {
	return posts.SessionInfo{
		UserID: s.UserID,
		Admin:  s.IsAdmin(),
	}
}
