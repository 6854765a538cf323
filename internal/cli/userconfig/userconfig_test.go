package userconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerURLDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	serverURL, err := GetServerURL()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, serverURL)
}

func TestSetServerURLRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SetServerURL("https://blog.example.com"))

	serverURL, err := GetServerURL()
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com", serverURL)
}

func TestEnvOverridesConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, SetServerURL("https://blog.example.com"))

	t.Setenv("SAFEPOST_SERVER", "https://other.example.com")

	serverURL, err := GetServerURL()
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", serverURL)
}
