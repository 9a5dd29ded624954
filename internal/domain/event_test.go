package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTransitions(t *testing.T) {
	// From\To    | draft | locked | finalized
	// -----------|-------|--------|----------
	// draft      | N/A   | ✓      | ✓
	// locked     | ✗     | N/A    | ✓
	// finalized  | ✗     | ✗      | N/A

	t.Run("draft → locked: allowed", func(t *testing.T) {
		assert.True(t, CanTransition(EventStatusDraft, EventStatusLocked))
	})

	t.Run("draft → finalized: allowed", func(t *testing.T) {
		assert.True(t, CanTransition(EventStatusDraft, EventStatusFinalized))
	})

	t.Run("locked → finalized: allowed", func(t *testing.T) {
		assert.True(t, CanTransition(EventStatusLocked, EventStatusFinalized))
	})

	t.Run("locked → draft: forbidden", func(t *testing.T) {
		assert.False(t, CanTransition(EventStatusLocked, EventStatusDraft))
	})

	t.Run("finalized is terminal", func(t *testing.T) {
		assert.False(t, CanTransition(EventStatusFinalized, EventStatusDraft))
		assert.False(t, CanTransition(EventStatusFinalized, EventStatusLocked))
		assert.False(t, CanTransition(EventStatusFinalized, EventStatusFinalized))
	})

	t.Run("no self transitions", func(t *testing.T) {
		assert.False(t, CanTransition(EventStatusDraft, EventStatusDraft))
		assert.False(t, CanTransition(EventStatusLocked, EventStatusLocked))
	})
}
