package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/safepost/safepost/internal/cli/api"
	"github.com/safepost/safepost/internal/cli/credstore"
	"github.com/safepost/safepost/internal/cli/session"
	"github.com/safepost/safepost/internal/cli/userconfig"
)

// tokenStore is the credential store used by all commands. Tests
// substitute an in-memory store.
var tokenStore credstore.Store = credstore.NewKeyring()

// cliLogger writes human-readable logs to stderr. Commands print their
// own output to stdout; the logger only carries diagnostics.
func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
}

// newSession builds an API client and session manager against the
// configured server. This is common logic used by most commands.
func newSession() (*session.Manager, *api.Client, error) {
	serverURL, err := userconfig.GetServerURL()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := cliLogger()
	client := api.New(serverURL, tokenStore, logger)
	manager := session.New(client, tokenStore, logger)
	return manager, client, nil
}
