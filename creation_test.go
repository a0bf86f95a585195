package keel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreationTracker_Lifecycle(t *testing.T) {
	tracker := newCreationTracker()

	assert.False(t, tracker.isCurrentlyInCreation("a"))

	require.NoError(t, tracker.before("a"))
	assert.True(t, tracker.isCurrentlyInCreation("a"))

	require.NoError(t, tracker.after("a"))
	assert.False(t, tracker.isCurrentlyInCreation("a"))
}

func TestCreationTracker_ReentryFails(t *testing.T) {
	tracker := newCreationTracker()

	require.NoError(t, tracker.before("a"))

	err := tracker.before("a")
	assert.ErrorIs(t, err, ErrCurrentlyInCreation("a"))
}

func TestCreationTracker_AfterWithoutBefore(t *testing.T) {
	tracker := newCreationTracker()

	err := tracker.after("a")
	assert.ErrorIs(t, err, ErrIllegalState("key 'a' is not currently in creation"))
}

func TestCreationTracker_ExclusionBypassesChecks(t *testing.T) {
	tracker := newCreationTracker()
	tracker.setCurrentlyInCreation("a", false)

	// Repeated before calls are fine for an excluded key.
	require.NoError(t, tracker.before("a"))
	require.NoError(t, tracker.before("a"))
	require.NoError(t, tracker.after("a"))

	assert.False(t, tracker.isCurrentlyInCreation("a"))
}

func TestCreationTracker_ExclusionReinstated(t *testing.T) {
	tracker := newCreationTracker()

	tracker.setCurrentlyInCreation("a", false)
	tracker.setCurrentlyInCreation("a", true)

	require.NoError(t, tracker.before("a"))
	assert.True(t, tracker.isCurrentlyInCreation("a"))
}

func TestCreationTracker_ExcludedKeyNotReported(t *testing.T) {
	tracker := newCreationTracker()

	require.NoError(t, tracker.before("a"))
	tracker.setCurrentlyInCreation("a", false)

	assert.False(t, tracker.isCurrentlyInCreation("a"))
	assert.True(t, tracker.isActuallyInCreation("a"))
}
