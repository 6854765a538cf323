// Package api implements the shared HTTP client for the SafePost backend.
//
// One Client instance is shared by every caller so that bearer-token
// injection and unauthorized handling apply uniformly: the token is read
// from the credential store before each request, and any 401 response
// clears the store and fires the unauthorized hook before the caller's
// error handling runs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepost/safepost/internal/cli/credstore"
)

const basePath = "/api/v1"

// Client represents an HTTP client for the SafePost API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	creds          credstore.Store
	onUnauthorized func()
	logger         zerolog.Logger
}

// New creates a new API client backed by the given credential store
func New(baseURL string, creds credstore.Store, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:  creds,
		logger: logger.With().Str("component", "api_client").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// OnUnauthorized registers the observer invoked when any request comes back
// 401. The credential store is already cleared by the time it runs. This
// keeps transport code out of the session-teardown business: the session
// manager registers itself here
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// do performs a request against the API. A token in the credential store is
// attached as a bearer credential; the request goes out unauthenticated
// otherwise. Non-2xx responses come back as *Error
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, query, reqBody, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	fullURL := c.baseURL + basePath + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Attach the bearer token when one is stored
	if token, ok := c.creds.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// handleErrorResponse normalizes a non-2xx response. For a 401 the
// credential store is cleared and the unauthorized observer fires exactly
// once, before the error reaches the caller
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &Error{}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
		apiErr = &Error{Status: http.StatusInternalServerError, Message: "an unexpected error occurred"}
	}
	if apiErr.Status == 0 {
		apiErr.Status = resp.StatusCode
	}

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr.Status = http.StatusUnauthorized

		// Expired or invalid token kills the whole session immediately;
		// side effects happen before the caller sees the error
		if err := c.creds.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear credentials")
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	return apiErr
}

// Auth endpoints

// Login authenticates and returns a bearer token. The token is not
// persisted here; the session manager owns credential writes
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its first bearer token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the backend. Logout is local-first; callers ignore
// failures from this call
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Profile fetches the authenticated user's own profile
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// PublicProfile fetches another user's public profile
func (c *Client) PublicProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/"+userID+"/profile", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the authenticated user's profile
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserProfile, error) {
	var profile UserProfile
	if err := c.do(ctx, http.MethodPut, "/users/profile", nil, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Post endpoints

// ListPosts returns published posts, optionally filtered
func (c *Client) ListPosts(ctx context.Context, params ListPostsParams) ([]Post, error) {
	query := url.Values{}
	if params.CategoryID != "" {
		query.Set("categoryId", params.CategoryID)
	}
	if params.TagID != "" {
		query.Set("tagId", params.TagID)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/posts", query, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+id, nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Drafts returns the caller's draft posts
func (c *Client) Drafts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/posts/drafts", nil, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost creates a post
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/posts", nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post's content
func (c *Client) UpdatePost(ctx context.Context, id string, req CreatePostRequest) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPut, "/posts/"+id, nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+id, nil, nil, nil)
}

// Category and tag endpoints

// Categories lists all categories
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a category (admin only)
func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var category Category
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/categories", nil, body, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory renames a category (admin only)
func (c *Client) UpdateCategory(ctx context.Context, id, name string) (*Category, error) {
	var category Category
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, "/categories/"+id, nil, body, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory deletes an empty category (admin only)
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+id, nil, nil, nil)
}

// Tags lists all tags
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTags creates tags by name, returning existing ones unchanged
func (c *Client) CreateTags(ctx context.Context, names []string) ([]Tag, error) {
	var tags []Tag
	body := map[string][]string{"names": names}
	if err := c.do(ctx, http.MethodPost, "/tags", nil, body, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteTag deletes a tag (admin only)
func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tags/"+id, nil, nil, nil)
}

// Like endpoints

// ToggleLike flips the caller's like on a post and returns the
// authoritative state
func (c *Client) ToggleLike(ctx context.Context, postID string) (*LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodPost, "/posts/"+postID+"/likes", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetLikeStatus returns the like state for a post
func (c *Client) GetLikeStatus(ctx context.Context, postID string) (*LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodGet, "/posts/"+postID+"/likes", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// File endpoints

// UploadCover uploads a cover image
func (c *Client) UploadCover(ctx context.Context, filename string, content io.Reader) (*StoredFile, error) {
	return c.upload(ctx, "/files/covers", filename, content)
}

// DeleteCover deletes an uploaded cover image
func (c *Client) DeleteCover(ctx context.Context, filename string) error {
	return c.do(ctx, http.MethodDelete, "/files/covers/"+filename, nil, nil, nil)
}

// UploadAvatar uploads an avatar image
func (c *Client) UploadAvatar(ctx context.Context, filename string, content io.Reader) (*StoredFile, error) {
	return c.upload(ctx, "/files/avatars", filename, content)
}

// DeleteAvatar deletes an uploaded avatar image
func (c *Client) DeleteAvatar(ctx context.Context, filename string) error {
	return c.do(ctx, http.MethodDelete, "/files/avatars/"+filename, nil, nil, nil)
}

func (c *Client) upload(ctx context.Context, path, filename string, content io.Reader) (*StoredFile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// The backend validates the part's content type, so set it from the
	// file extension instead of letting multipart default to octet-stream
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mime.TypeByExtension(filepath.Ext(filename)))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var stored StoredFile
	if err := c.send(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType(), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}
