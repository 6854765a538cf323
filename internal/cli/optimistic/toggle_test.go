package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginFlipsOptimistically(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})

	state := toggle.Begin()
	assert.Equal(t, LikeState{Liked: true, Count: 6}, state)
	assert.True(t, toggle.Pending())

	// And the other direction
	toggle = NewToggle(LikeState{Liked: true, Count: 6})
	state = toggle.Begin()
	assert.Equal(t, LikeState{Liked: false, Count: 5}, state)
}

func TestConfirmAdoptsServerState(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})
	toggle.Begin()

	// A concurrent like from another session can make the server count
	// differ from the optimistic guess
	state := toggle.Confirm(LikeState{Liked: true, Count: 7})
	assert.Equal(t, LikeState{Liked: true, Count: 7}, state)
	assert.False(t, toggle.Pending())
}

func TestRollbackRestoresExactPriorState(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})
	toggle.Begin()

	state := toggle.Rollback()
	assert.Equal(t, LikeState{Liked: false, Count: 5}, state)
	assert.False(t, toggle.Pending())

	// Rollback with nothing pending is a no-op
	state = toggle.Rollback()
	assert.Equal(t, LikeState{Liked: false, Count: 5}, state)
}

func TestDoSuccess(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})

	var optimisticSeen LikeState
	state, err := toggle.Do(context.Background(), func(ctx context.Context) (LikeState, error) {
		optimisticSeen = toggle.State()
		return LikeState{Liked: true, Count: 6}, nil
	})
	require.NoError(t, err)

	// The UI showed the flipped state while the request was in flight
	assert.Equal(t, LikeState{Liked: true, Count: 6}, optimisticSeen)
	assert.Equal(t, LikeState{Liked: true, Count: 6}, state)
	assert.False(t, toggle.Pending())
}

func TestDoFailureRollsBack(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})

	state, err := toggle.Do(context.Background(), func(ctx context.Context) (LikeState, error) {
		return LikeState{}, errors.New("network down")
	})
	require.Error(t, err)

	assert.Equal(t, LikeState{Liked: false, Count: 5}, state)
	assert.Equal(t, LikeState{Liked: false, Count: 5}, toggle.State())
	assert.False(t, toggle.Pending())
}

func TestRapidDoubleToggleKeepsOriginalRollbackPoint(t *testing.T) {
	toggle := NewToggle(LikeState{Liked: false, Count: 5})

	// Two Begins before any settlement: prev stays at the first
	// pre-toggle state
	toggle.Begin()
	toggle.Begin()

	state := toggle.Rollback()
	assert.Equal(t, LikeState{Liked: false, Count: 5}, state)
}
