// Package optimistic implements the local state machine behind
// boolean-toggle-with-counter mutations such as the like button: flip
// locally first, confirm against the server, roll back exactly on failure.
package optimistic

import (
	"context"
	"sync"
)

// LikeState is a boolean flag with its counter
type LikeState struct {
	Liked bool
	Count int64
}

// Toggle tracks one toggleable counter through the optimistic-update
// cycle: idle -> pending(optimistic, previous) -> idle. The visible state
// is always the optimistic guess (request in flight), the server-confirmed
// state (success), or the exact pre-toggle state (failure) - never a mix
type Toggle struct {
	mu      sync.Mutex
	state   LikeState
	prev    LikeState
	pending bool
}

// NewToggle starts a toggle at the given state
func NewToggle(initial LikeState) *Toggle {
	return &Toggle{state: initial}
}

// State returns the currently visible state
func (t *Toggle) State() LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pending reports whether a confirmation is outstanding
func (t *Toggle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Begin applies the optimistic flip: the flag inverts and the counter
// moves by one, before any network round trip. The pre-toggle state is
// retained for rollback. Returns the optimistic state
func (t *Toggle) Begin() LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pending {
		t.prev = t.state
		t.pending = true
	}

	if t.state.Liked {
		t.state = LikeState{Liked: false, Count: t.state.Count - 1}
	} else {
		t.state = LikeState{Liked: true, Count: t.state.Count + 1}
	}
	return t.state
}

// Confirm adopts the server's authoritative state, which may differ from
// the optimistic guess under concurrent toggles from other sessions
func (t *Toggle) Confirm(server LikeState) LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = server
	t.pending = false
	return t.state
}

// Rollback restores the exact pre-toggle state. A rollback with nothing
// pending is a no-op
func (t *Toggle) Rollback() LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		t.state = t.prev
		t.pending = false
	}
	return t.state
}

// Do runs one full optimistic cycle: flip locally, call the mutation, then
// confirm or roll back. The error is returned for caller-side reporting;
// the visible state has already settled either way. Two racing Do calls on
// the same toggle settle last-response-wins
func (t *Toggle) Do(ctx context.Context, mutate func(context.Context) (LikeState, error)) (LikeState, error) {
	t.Begin()

	server, err := mutate(ctx)
	if err != nil {
		return t.Rollback(), err
	}
	return t.Confirm(server), nil
}
