package models

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Role values for User.Role
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Post status values
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
)

// Upload kinds
const (
	UploadKindCover  = "cover"
	UploadKindAvatar = "avatar"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Setting holds server-generated configuration for the deployment.
// This is a singleton model (only one row should exist)
type Setting struct {
	BaseModel
	// Auto-generated on first startup when JWT_SECRET is not set (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`
}

// User represents a registered author/reader account
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name" gorm:"not null"`
	Role         string `json:"role" gorm:"not null;default:USER"`

	// Profile fields
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	AvatarURL      string `json:"avatarUrl"`
	AvatarFilename string `json:"-"`
	TwitterURL     string `json:"twitterUrl"`
	GithubURL      string `json:"githubUrl"`
	LinkedinURL    string `json:"linkedinUrl"`
	WebsiteURL     string `json:"websiteUrl"`

	ProfileCompletedAt *time.Time `json:"-"`
	UpdatedAt          time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	Posts []Post `json:"-" gorm:"foreignKey:AuthorID"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Category groups posts into a single topic area
type Category struct {
	BaseModel
	Name string `json:"name" gorm:"unique;not null"`

	// Relationships
	Posts []Post `json:"-" gorm:"foreignKey:CategoryID"`
}

// Tag is a free-form label attached to posts
type Tag struct {
	BaseModel
	Name string `json:"name" gorm:"unique;not null"`

	// Relationships
	Posts []Post `json:"-" gorm:"many2many:post_tags"`
}

// Post represents an article authored by a user
type Post struct {
	BaseModel
	Title      string `json:"title" gorm:"not null"`
	Content    string `json:"content" gorm:"type:text;not null"`
	AuthorID   string `json:"-" gorm:"not null;index"`
	CategoryID string `json:"-" gorm:"not null;index"`
	Status     string `json:"status" gorm:"not null;default:DRAFT"`

	ReadingTime int `json:"readingTime" gorm:"not null;default:0"` // minutes
	ViewCount   int `json:"viewCount" gorm:"not null;default:0"`

	// Cover image metadata (empty when the post has no cover)
	CoverImageURL         string `json:"coverImageUrl"`
	CoverImageFilename    string `json:"coverImageFilename"`
	CoverImageSize        int64  `json:"coverImageSize"`
	CoverImageContentType string `json:"coverImageContentType"`

	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	Author   *User    `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Category Category `json:"category" gorm:"foreignKey:CategoryID"`
	Tags     []Tag    `json:"tags" gorm:"many2many:post_tags"`
}

// ReadingTimeFor estimates reading time in minutes at roughly 200 words
// per minute, never reporting less than a minute for non-empty content
func ReadingTimeFor(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// PostLike records that a user liked a post. The unique index makes the
// like toggle idempotent per (post, user) pair
type PostLike struct {
	BaseModel
	PostID string `json:"post_id" gorm:"not null;uniqueIndex:idx_post_user"`
	UserID string `json:"user_id" gorm:"not null;uniqueIndex:idx_post_user"`

	// Relationships
	Post Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Upload tracks a stored cover or avatar image on disk
type Upload struct {
	BaseModel
	Filename    string `json:"filename" gorm:"unique;not null"`
	Kind        string `json:"kind" gorm:"not null;index"` // cover, avatar
	Size        int64  `json:"size" gorm:"not null"`
	ContentType string `json:"contentType" gorm:"not null"`
	UploadedBy  string `json:"-" gorm:"index"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Setting{}, &User{}, &Category{}, &Tag{}, &Post{}, &PostLike{}, &Upload{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
