// Package credstore persists the CLI's single bearer token across runs.
package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service  = "safepost-cli"
	tokenKey = "token"
)

// Store holds at most one bearer token. Implementations must make Get
// infallible (absent token reported through ok) and Clear idempotent.
type Store interface {
	// Get returns the stored token. ok is false when no token is stored
	// or the backing store is unreadable; Get never fails.
	Get() (token string, ok bool)

	// Set overwrites any existing token.
	Set(token string) error

	// Clear removes the token. Clearing an empty store is a no-op.
	Clear() error
}

// Keyring stores the token in the OS keychain/credential manager
type Keyring struct{}

// NewKeyring returns the default keyring-backed store
func NewKeyring() *Keyring {
	return &Keyring{}
}

func (k *Keyring) Get() (string, bool) {
	token, err := keyring.Get(service, tokenKey)
	if err != nil {
		return "", false
	}
	return token, token != ""
}

func (k *Keyring) Set(token string) error {
	if err := keyring.Set(service, tokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *Keyring) Clear() error {
	if err := keyring.Delete(service, tokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already cleared
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
