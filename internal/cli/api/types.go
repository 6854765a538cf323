package api

import "time"

// Post status values understood by the backend
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// UserProfile represents a user's profile
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	TwitterURL  string `json:"twitterUrl,omitempty"`
	GithubURL   string `json:"githubUrl,omitempty"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
	WebsiteURL  string `json:"websiteUrl,omitempty"`
	Location    string `json:"location,omitempty"`
	PostCount   int64  `json:"postCount"`
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	TwitterURL     string `json:"twitterUrl"`
	GithubURL      string `json:"githubUrl"`
	LinkedinURL    string `json:"linkedinUrl"`
	WebsiteURL     string `json:"websiteUrl"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarFilename string `json:"avatarFilename"`
}

// Category groups posts into a topic area
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PostCount int64  `json:"postCount"`
}

// Tag is a free-form label attached to posts
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PostCount int64  `json:"postCount"`
}

// PostAuthor is the trimmed author shape embedded in posts
type PostAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post represents an article
type Post struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Author        *PostAuthor `json:"author,omitempty"`
	Category      Category    `json:"category"`
	Tags          []Tag       `json:"tags"`
	Status        string      `json:"status"`
	ReadingTime   int         `json:"readingTime"`
	ViewCount     int         `json:"viewCount"`
	CoverImageURL string      `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// CreatePostRequest creates or replaces a post
type CreatePostRequest struct {
	Title                 string   `json:"title"`
	Content               string   `json:"content"`
	CategoryID            string   `json:"categoryId"`
	TagIDs                []string `json:"tagIds"`
	Status                string   `json:"status"`
	CoverImageURL         string   `json:"coverImageUrl,omitempty"`
	CoverImageFilename    string   `json:"coverImageFilename,omitempty"`
	CoverImageSize        int64    `json:"coverImageSize,omitempty"`
	CoverImageContentType string   `json:"coverImageContentType,omitempty"`
}

// LikeStatus is the authoritative like state for a post
type LikeStatus struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// StoredFile describes an uploaded image
type StoredFile struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        string `json:"size"`
	ContentType string `json:"contentType"`
}

// ListPostsParams filters the post listing. Empty fields are omitted
type ListPostsParams struct {
	CategoryID string
	TagID      string
	Search     string
}
