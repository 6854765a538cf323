package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Enqueued on every post read so the counter update stays off the
	// request path
	TypePostViewed = "post:viewed"

	// Enqueued by the sweep scheduler to delete unreferenced images
	TypeSweepUploads = "uploads:sweep"
)

// PostViewedPayload carries the post whose view counter should be bumped
type PostViewedPayload struct {
	PostID string `json:"post_id"`
}

// NewPostViewedTask creates a task to increment a post's view count
func NewPostViewedTask(postID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PostViewedPayload{PostID: postID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePostViewed, payload), nil
}

// NewSweepUploadsTask creates a task to delete orphaned uploads
func NewSweepUploadsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSweepUploads, nil), nil
}

// ParsePostViewedPayload parses a post-viewed payload from an Asynq task
func ParsePostViewedPayload(task *asynq.Task) (PostViewedPayload, error) {
	var payload PostViewedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
