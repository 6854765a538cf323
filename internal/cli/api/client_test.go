package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepost/safepost/internal/cli/credstore"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *credstore.Memory) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	store := credstore.NewMemory()
	client := New(ts.URL, store, zerolog.Nop())
	return client, store
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))

	require.NoError(t, store.Set("tok-123"))

	_, err := client.ListPosts(context.Background(), ListPostsParams{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientAnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))

	_, err := client.ListPosts(context.Background(), ListPostsParams{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":400,"message":"Validation failed","errors":[{"field":"email","message":"Must be a valid email address"}]}`))
	}))

	_, err := client.Login(context.Background(), LoginRequest{Email: "nope", Password: "x"})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "email", apiErr.Errors[0].Field)
}

func TestClientFallbackErrorOnGarbageBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))

	_, err := client.ListPosts(context.Background(), ListPostsParams{})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "an unexpected error occurred", apiErr.Message)
}

func TestClient401ClearsStoreAndFiresHookOnce(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":401,"message":"Invalid or expired token"}`))
	}))

	require.NoError(t, store.Set("expired-token"))

	hookCalls := 0
	storeEmptyAtHook := false
	client.OnUnauthorized(func() {
		hookCalls++
		_, ok := store.Get()
		storeEmptyAtHook = !ok
	})

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, hookCalls, "hook fires exactly once per 401")
	assert.True(t, storeEmptyAtHook, "store is cleared before the hook runs")

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestClient401OnAnyEndpoint(t *testing.T) {
	// The interception is uniform; a 401 from a non-auth endpoint tears
	// down credentials the same way
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":401,"message":"Invalid or expired token"}`))
	}))

	require.NoError(t, store.Set("expired-token"))

	_, err := client.ToggleLike(context.Background(), "01ABC")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestUpdateCategory(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"01HCAT","name":"Golang"}`))
	}))

	category, err := client.UpdateCategory(context.Background(), "01HCAT", "Golang")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/categories/01HCAT", gotPath)
	assert.Equal(t, map[string]string{"name": "Golang"}, gotBody)
	assert.Equal(t, "01HCAT", category.ID)
	assert.Equal(t, "Golang", category.Name)
}

func TestUploadCover(t *testing.T) {
	var gotAuth, gotFilename, gotContentType string
	var gotContent []byte
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"filename":"01stored.png","url":"/api/v1/files/covers/01stored.png","size":"9","contentType":"image/png"}`))
	}))

	require.NoError(t, store.Set("tok-123"))

	stored, err := client.UploadCover(context.Background(), "pic.png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "pic.png", gotFilename)
	// The part's content type comes from the file extension, not the
	// multipart default of application/octet-stream
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("png-bytes"), gotContent)

	assert.Equal(t, "01stored.png", stored.Filename)
	assert.Equal(t, "/api/v1/files/covers/01stored.png", stored.URL)
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&Error{Status: 401, Message: "nope"}))
	assert.False(t, IsUnauthorized(&Error{Status: 404, Message: "gone"}))
	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsUnauthorized(context.Canceled))
}
