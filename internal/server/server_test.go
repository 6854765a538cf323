package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepost/safepost/internal/config"
	"github.com/safepost/safepost/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret-not-for-production"},
		Uploads:  config.UploadConfig{Dir: t.TempDir()},
		Logging:  config.LoggingConfig{Level: "error", Format: "console"},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// registerUser creates an account through the API and returns its token
func registerUser(t *testing.T, srv *Server, name, email string) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "Str0ngPass1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func seedPost(t *testing.T, srv *Server, authorToken string) string {
	t.Helper()

	category := models.Category{Name: "Go"}
	require.NoError(t, srv.GetDB().Create(&category).Error)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/posts", authorToken, CreatePostRequest{
		Title:      "Hello",
		Content:    "Some content worth reading.",
		CategoryID: category.ID,
		Status:     models.PostStatusPublished,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var post PostResponse
	decodeJSON(t, w, &post)
	return post.ID
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "online")
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "Ada", "ada@example.com")

	// The registration token works immediately
	w := doJSON(t, srv, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile UserProfileResponse
	decodeJSON(t, w, &profile)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, models.RoleUser, profile.Role)

	// Fresh login issues a new working token
	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email:    "ada@example.com",
		Password: "Str0ngPass1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var authResp AuthResponse
	decodeJSON(t, w, &authResp)
	assert.NotEmpty(t, authResp.Token)
	assert.Greater(t, authResp.ExpiresIn, int64(0))

	w = doJSON(t, srv, http.MethodGet, "/api/v1/auth/profile", authResp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRememberMeStretchesExpiry(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "Ada", "ada@example.com")

	var short, long AuthResponse

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email: "ada@example.com", Password: "Str0ngPass1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &short)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email: "ada@example.com", Password: "Str0ngPass1", RememberMe: true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &long)

	assert.Greater(t, long.ExpiresIn, short.ExpiresIn)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "Ada", "ada@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var errResp ErrorResponse
	decodeJSON(t, w, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.Status)
	assert.Equal(t, "Invalid email or password", errResp.Message)
}

func TestRegisterValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	// Weak password fails the strength check with a field error
	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "alllowercase",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp ErrorResponse
	decodeJSON(t, w, &errResp)
	assert.Equal(t, "Validation failed", errResp.Message)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "password", errResp.Errors[0].Field)

	// Duplicate email is a field error too
	registerUser(t, srv, "Ada", "ada@example.com")
	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name:     "Other Ada",
		Email:    "ada@example.com",
		Password: "Str0ngPass1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	decodeJSON(t, w, &errResp)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "email", errResp.Errors[0].Field)
	assert.Equal(t, "Email already registered", errResp.Errors[0].Message)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/v1/auth/profile", "/api/v1/posts/drafts"} {
		w := doJSON(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		var errResp ErrorResponse
		decodeJSON(t, w, &errResp)
		assert.Equal(t, http.StatusUnauthorized, errResp.Status, path)
	}

	// A garbage token is rejected the same way
	w := doJSON(t, srv, http.MethodGet, "/api/v1/auth/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLikeToggleRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	authorToken := registerUser(t, srv, "Ada", "ada@example.com")
	postID := seedPost(t, srv, authorToken)

	readerToken := registerUser(t, srv, "Grace", "grace@example.com")

	// First toggle likes
	w := doJSON(t, srv, http.MethodPost, "/api/v1/posts/"+postID+"/likes", readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status struct {
		Liked      bool  `json:"liked"`
		LikesCount int64 `json:"likesCount"`
	}
	decodeJSON(t, w, &status)
	assert.True(t, status.Liked)
	assert.Equal(t, int64(1), status.LikesCount)

	// Second toggle unlikes
	w = doJSON(t, srv, http.MethodPost, "/api/v1/posts/"+postID+"/likes", readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &status)
	assert.False(t, status.Liked)
	assert.Equal(t, int64(0), status.LikesCount)

	// Anonymous status is readable and never shows liked
	w = doJSON(t, srv, http.MethodGet, "/api/v1/posts/"+postID+"/likes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &status)
	assert.False(t, status.Liked)
}

func TestLikeUnknownPost(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Ada", "ada@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/posts/01NOSUCHPOST/likes", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp ErrorResponse
	decodeJSON(t, w, &errResp)
	assert.Equal(t, "Post not found", errResp.Message)
}

func TestPostOwnership(t *testing.T) {
	srv := newTestServer(t)

	authorToken := registerUser(t, srv, "Ada", "ada@example.com")
	postID := seedPost(t, srv, authorToken)

	intruderToken := registerUser(t, srv, "Mallory", "mallory@example.com")

	var category models.Category
	require.NoError(t, srv.GetDB().First(&category).Error)

	update := CreatePostRequest{
		Title:      "Hijacked",
		Content:    "New content.",
		CategoryID: category.ID,
		Status:     models.PostStatusPublished,
	}

	w := doJSON(t, srv, http.MethodPut, "/api/v1/posts/"+postID, intruderToken, update)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/posts/"+postID, intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner can update
	w = doJSON(t, srv, http.MethodPut, "/api/v1/posts/"+postID, authorToken, update)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDraftsAreInvisibleToReaders(t *testing.T) {
	srv := newTestServer(t)

	authorToken := registerUser(t, srv, "Ada", "ada@example.com")

	category := models.Category{Name: "Go"}
	require.NoError(t, srv.GetDB().Create(&category).Error)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/posts", authorToken, CreatePostRequest{
		Title:      "Work in progress",
		Content:    "Not done yet.",
		CategoryID: category.ID,
		Status:     models.PostStatusDraft,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Public listing is empty
	w = doJSON(t, srv, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []PostResponse
	decodeJSON(t, w, &list)
	assert.Empty(t, list)

	// The author sees it under drafts
	w = doJSON(t, srv, http.MethodGet, "/api/v1/posts/drafts", authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Work in progress", list[0].Title)
}

func TestAdminOnlyCategoryManagement(t *testing.T) {
	srv := newTestServer(t)

	userToken := registerUser(t, srv, "Ada", "ada@example.com")

	// Regular users cannot create categories
	w := doJSON(t, srv, http.MethodPost, "/api/v1/categories", userToken, CategoryRequest{Name: "Go"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Promote to admin and retry with a fresh token
	require.NoError(t, srv.GetDB().Model(&models.User{}).
		Where("email = ?", "ada@example.com").
		Update("role", models.RoleAdmin).Error)

	var login AuthResponse
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email: "ada@example.com", Password: "Str0ngPass1",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeJSON(t, resp, &login)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/categories", login.Token, CategoryRequest{Name: "Go"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
