package uploads

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/safepost/safepost/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	return NewService(db, t.TempDir(), zerolog.Nop()), db
}

// fileHeader builds a multipart.FileHeader the way an HTTP upload would
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(MaxImageSize))

	return req.MultipartForm.File["file"][0]
}

func TestValidate(t *testing.T) {
	svc, _ := newTestService(t)

	assert.NoError(t, svc.Validate(fileHeader(t, "a.png", "image/png", []byte("png-bytes"))))
	assert.Error(t, svc.Validate(fileHeader(t, "a.pdf", "application/pdf", []byte("%PDF"))))

	oversized := fileHeader(t, "a.png", "image/png", []byte("x"))
	oversized.Size = MaxImageSize + 1
	assert.Error(t, svc.Validate(oversized))
}

func TestStoreAndPath(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Store(ctx, models.UploadKindCover, "01HUSER", fileHeader(t, "pic.png", "image/png", []byte("png-bytes")))
	require.NoError(t, err)

	assert.NotEmpty(t, stored.Filename)
	assert.Equal(t, ".png", filepath.Ext(stored.Filename))
	assert.Equal(t, "/api/v1/files/covers/"+stored.Filename, stored.URL)
	assert.Equal(t, "image/png", stored.ContentType)

	// File exists on disk and is resolvable
	path, err := svc.Path(models.UploadKindCover, stored.Filename)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// And is recorded in the database
	var upload models.Upload
	require.NoError(t, db.Where("filename = ?", stored.Filename).First(&upload).Error)
	assert.Equal(t, models.UploadKindCover, upload.Kind)
	assert.Equal(t, "01HUSER", upload.UploadedBy)
}

func TestPathRejectsTraversal(t *testing.T) {
	svc, _ := newTestService(t)

	for _, filename := range []string{"../secret", "../../etc/passwd", "a/b.png", ".", ""} {
		_, err := svc.Path(models.UploadKindCover, filename)
		assert.ErrorIs(t, err, ErrNotFound, filename)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Store(ctx, models.UploadKindAvatar, "01HUSER", fileHeader(t, "pic.jpg", "image/jpeg", []byte("jpeg")))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, models.UploadKindAvatar, stored.Filename))
	_, err = svc.Path(models.UploadKindAvatar, stored.Filename)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine
	require.NoError(t, svc.Delete(ctx, models.UploadKindAvatar, stored.Filename))
}

func TestSweepOrphans(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	referenced, err := svc.Store(ctx, models.UploadKindCover, "01HUSER", fileHeader(t, "kept.png", "image/png", []byte("kept")))
	require.NoError(t, err)
	orphan, err := svc.Store(ctx, models.UploadKindCover, "01HUSER", fileHeader(t, "gone.png", "image/png", []byte("gone")))
	require.NoError(t, err)

	// A post references one of the covers
	user := models.User{Email: "ada@example.com", PasswordHash: "x", Name: "Ada", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	category := models.Category{Name: "Go"}
	require.NoError(t, db.Create(&category).Error)
	post := models.Post{
		Title:              "Hello",
		Content:            "Content.",
		AuthorID:           user.ID,
		CategoryID:         category.ID,
		Status:             models.PostStatusPublished,
		CoverImageFilename: referenced.Filename,
	}
	require.NoError(t, db.Create(&post).Error)

	removed, err := svc.SweepOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = svc.Path(models.UploadKindCover, referenced.Filename)
	assert.NoError(t, err, "referenced upload survives the sweep")
	_, err = svc.Path(models.UploadKindCover, orphan.Filename)
	assert.ErrorIs(t, err, ErrNotFound)
}
