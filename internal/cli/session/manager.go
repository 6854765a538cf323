// Package session owns the client-side authentication state.
//
// The manager is the only writer of session state. Everything else reads
// snapshots or subscribes to change notifications. A 401 on any request,
// anywhere, tears the session down through the API client's unauthorized
// hook; by the time the failing caller sees its error, the session is
// already anonymous and the stored credential is gone.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/safepost/safepost/internal/cli/api"
	"github.com/safepost/safepost/internal/cli/credstore"
)

// State is the session lifecycle state
type State int

const (
	// Anonymous means no user is logged in
	Anonymous State = iota
	// Authenticating means a stored token is being revalidated or a
	// login/registration is in flight
	Authenticating
	// Authenticated means a token was validated against the backend and
	// a user profile is loaded
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is the read-only view handed to subscribers and callers.
// IsAuthenticated is true iff a token is present and was validated against
// the backend since it was last set, and User is present iff
// IsAuthenticated is true
type Snapshot struct {
	State           State
	IsAuthenticated bool
	User            *api.UserProfile
	Token           string
}

// Manager owns the in-memory session and mirrors it against the credential
// store
type Manager struct {
	mu     sync.Mutex
	client *api.Client
	creds  credstore.Store
	logger zerolog.Logger

	state State
	user  *api.UserProfile
	token string

	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a session manager over the shared API client and credential
// store, and registers itself as the client's unauthorized observer
func New(client *api.Client, creds credstore.Store, logger zerolog.Logger) *Manager {
	m := &Manager{
		client: client,
		creds:  creds,
		logger: logger.With().Str("component", "session").Logger(),
		state:  Anonymous,
		subs:   make(map[int]func(Snapshot)),
	}

	// Global 401 policy: the client has already cleared the store when
	// this fires; reset the in-memory mirror to match
	client.OnUnauthorized(m.forceLogout)

	return m
}

// Snapshot returns the current session state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:           m.state,
		IsAuthenticated: m.state == Authenticated,
		User:            m.user,
		Token:           m.token,
	}
}

// Subscribe registers a change-notification callback and returns an
// unsubscribe function. Components re-render from the snapshot they are
// handed; they never mutate session state
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// notifyLocked captures the subscriber list and the current snapshot under
// the lock and returns the delivery function. The caller invokes it after
// releasing mu so subscribers can call back into the manager
func (m *Manager) notifyLocked() func() {
	snapshot := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(snapshot)
		}
	}
}

// Init attempts silent revalidation of a stored token at startup. With no
// stored token the session stays anonymous. A stored token that fails
// revalidation for any reason is discarded; the failure never propagates
func (m *Manager) Init(ctx context.Context) {
	token, ok := m.creds.Get()
	if !ok {
		return
	}

	m.mu.Lock()
	m.state = Authenticating
	m.token = token
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	profile, err := m.client.Profile(ctx)
	if err != nil {
		// Token is stale or invalid: clear and stay anonymous. A 401 has
		// already cleared the store through the client; clearing again
		// is a no-op
		m.logger.Debug().Err(err).Msg("Stored token rejected, starting anonymous")
		if err := m.creds.Clear(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to clear credentials")
		}
		m.forceLogout()
		return
	}

	m.mu.Lock()
	m.state = Authenticated
	m.user = profile
	notify = m.notifyLocked()
	m.mu.Unlock()
	notify()

	m.logger.Debug().Str("user_id", profile.ID).Msg("Session restored from stored token")
}

// Login authenticates, persists the returned token, and loads the profile.
// Errors are returned to the caller for display; nothing is retried
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) error {
	m.mu.Lock()
	m.state = Authenticating
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	resp, err := m.client.Login(ctx, api.LoginRequest{
		Email:      email,
		Password:   password,
		RememberMe: rememberMe,
	})
	if err != nil {
		m.forceLogout()
		return err
	}

	return m.adoptToken(ctx, resp.Token)
}

// Register creates an account and enters the authenticated state, same
// shape as Login
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	m.mu.Lock()
	m.state = Authenticating
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	resp, err := m.client.Register(ctx, api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		m.forceLogout()
		return err
	}

	return m.adoptToken(ctx, resp.Token)
}

// adoptToken persists a freshly issued token and completes the transition
// to Authenticated by fetching the profile
func (m *Manager) adoptToken(ctx context.Context, token string) error {
	if err := m.creds.Set(token); err != nil {
		m.forceLogout()
		return err
	}

	profile, err := m.client.Profile(ctx)
	if err != nil {
		if clearErr := m.creds.Clear(); clearErr != nil {
			m.logger.Warn().Err(clearErr).Msg("Failed to clear credentials")
		}
		m.forceLogout()
		return err
	}

	m.mu.Lock()
	m.state = Authenticated
	m.user = profile
	m.token = token
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	m.logger.Info().Str("user_id", profile.ID).Msg("Logged in")
	return nil
}

// Logout always succeeds and is idempotent. The backend is notified while
// the token is still attached, but the notification is best-effort and its
// failure is ignored; local state is cleared regardless
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	wasAuthenticated := m.state == Authenticated
	m.mu.Unlock()

	// Notify while the token is still attached; the outcome never affects
	// the local logout
	if wasAuthenticated {
		if err := m.client.Logout(ctx); err != nil {
			m.logger.Debug().Err(err).Msg("Backend logout notification failed")
		}
	}

	if err := m.creds.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear credentials")
	}
	m.forceLogout()
}

// RefreshProfile re-fetches the profile in place. A no-op when anonymous.
// Transient failures are logged, not propagated: a stale profile beats a
// disrupted session. A 401 still tears the session down globally
func (m *Manager) RefreshProfile(ctx context.Context) {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	profile, err := m.client.Profile(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to refresh profile")
		return
	}

	m.mu.Lock()
	// Drop the result if the session ended while the fetch was in flight
	notify := func() {}
	if m.state == Authenticated {
		m.user = profile
		notify = m.notifyLocked()
	}
	m.mu.Unlock()
	notify()
}

// forceLogout resets the in-memory session to anonymous. The credential
// store is assumed already cleared (by the caller or by the API client's
// 401 handling)
func (m *Manager) forceLogout() {
	m.mu.Lock()

	if m.state == Anonymous && m.user == nil && m.token == "" {
		m.mu.Unlock()
		return
	}

	m.state = Anonymous
	m.user = nil
	m.token = ""
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()
}
