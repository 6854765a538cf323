package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/models"
)

// MaxImageSize is the upload size ceiling (5MB), matching what the web
// client tells users
const MaxImageSize = 5 << 20

var ErrNotFound = errors.New("file not found")

// allowedImageTypes maps accepted content types to their file extensions
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Service struct {
	db     *gorm.DB
	dir    string
	logger zerolog.Logger
}

func NewService(db *gorm.DB, dir string, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		dir:    dir,
		logger: logger.With().Str("component", "uploads_service").Logger(),
	}
}

// StoredFile describes a stored image, in the shape upload responses use
type StoredFile struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        string `json:"size"`
	ContentType string `json:"contentType"`
}

// Validate checks size and content type before anything touches disk
func (s *Service) Validate(header *multipart.FileHeader) error {
	if header.Size > MaxImageSize {
		return fmt.Errorf("image exceeds the 5MB size limit")
	}
	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedImageTypes[contentType]; !ok {
		return fmt.Errorf("invalid image type %q, allowed: JPG, PNG, GIF, WebP", contentType)
	}
	return nil
}

// Store writes an uploaded image under kind's subdirectory with a generated
// filename and records it in the database
func (s *Service) Store(ctx context.Context, kind, uploadedBy string, header *multipart.FileHeader) (*StoredFile, error) {
	if err := s.Validate(header); err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	filename := strings.ToLower(ulid.Make().String()) + allowedImageTypes[contentType]

	dir := filepath.Join(s.dir, kind+"s")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := dst.ReadFrom(src)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	upload := models.Upload{
		Filename:    filename,
		Kind:        kind,
		Size:        written,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(&upload).Error; err != nil {
		// Keep disk and database consistent on the failure path
		os.Remove(filepath.Join(dir, filename))
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.logger.Info().
		Str("filename", filename).
		Str("kind", kind).
		Int64("size", written).
		Msg("Image stored")

	return &StoredFile{
		Filename:    filename,
		URL:         fmt.Sprintf("/api/v1/files/%ss/%s", kind, filename),
		Size:        fmt.Sprintf("%d", written),
		ContentType: contentType,
	}, nil
}

// Path resolves a stored image to its on-disk path, rejecting anything that
// escapes the upload directory
func (s *Service) Path(kind, filename string) (string, error) {
	if filename != filepath.Base(filename) || filename == "." || filename == "" {
		return "", ErrNotFound
	}

	path := filepath.Join(s.dir, kind+"s", filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// ContentTypeFor guesses the content type from a stored filename
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Delete removes a stored image from disk and the database. Deleting a file
// that is already gone is not an error
func (s *Service) Delete(ctx context.Context, kind, filename string) error {
	if filename != filepath.Base(filename) || filename == "" {
		return ErrNotFound
	}

	path := filepath.Join(s.dir, kind+"s", filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("filename = ? AND kind = ?", filename, kind).
		Delete(&models.Upload{}).Error; err != nil {
		return fmt.Errorf("failed to delete upload record: %w", err)
	}

	s.logger.Info().Str("filename", filename).Str("kind", kind).Msg("Image deleted")
	return nil
}

// SweepOrphans deletes uploads no longer referenced by any post cover or
// user avatar. Returns how many files were removed
func (s *Service) SweepOrphans(ctx context.Context) (int, error) {
	var orphans []models.Upload
	err := s.db.WithContext(ctx).
		Where("kind = ? AND filename NOT IN (?)",
			models.UploadKindCover,
			s.db.Model(&models.Post{}).Select("cover_image_filename").Where("cover_image_filename != ''")).
		Or("kind = ? AND filename NOT IN (?)",
			models.UploadKindAvatar,
			s.db.Model(&models.User{}).Select("avatar_filename").Where("avatar_filename != ''")).
		Find(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find orphaned uploads: %w", err)
	}

	removed := 0
	for _, upload := range orphans {
		if err := s.Delete(ctx, upload.Kind, upload.Filename); err != nil {
			s.logger.Warn().Err(err).Str("filename", upload.Filename).Msg("Failed to sweep upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Swept orphaned uploads")
	}
	return removed, nil
}
