package pickstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pickcoordinator/internal/models"
)

func TestStartOnlyFromPending(t *testing.T) {
	to, ok := Start(models.StatusPending)
	assert.True(t, ok)
	assert.Equal(t, models.StatusInProgress, to)

	_, ok = Start(models.StatusInProgress)
	assert.False(t, ok)
}

func TestResumeFromPausedOrPartiallyCompleted(t *testing.T) {
	to, ok := Resume(models.StatusPaused)
	assert.True(t, ok)
	assert.Equal(t, models.StatusInProgress, to)

	to, ok = Resume(models.StatusPartiallyCompleted)
	assert.True(t, ok)
	assert.Equal(t, models.StatusInProgress, to)

	_, ok = Resume(models.StatusPending)
	assert.False(t, ok)
}

func TestReleaseFromAnyClaimedState(t *testing.T) {
	for _, s := range []models.Status{models.StatusInProgress, models.StatusPaused, models.StatusPartiallyCompleted} {
		to, ok := Release(s)
		assert.True(t, ok, s)
		assert.Equal(t, models.StatusPending, to)
	}
	_, ok := Release(models.StatusPending)
	assert.False(t, ok)
}

func TestSubmitBranchesOnShortage(t *testing.T) {
	to, ok := Submit(models.StatusInProgress, false)
	assert.True(t, ok)
	assert.Equal(t, models.StatusCompleted, to)

	to, ok = Submit(models.StatusInProgress, true)
	assert.True(t, ok)
	assert.Equal(t, models.StatusPartiallyCompleted, to)

	_, ok = Submit(models.StatusPaused, false)
	assert.False(t, ok)
}

func TestApproveOnlyFromPartiallyCompleted(t *testing.T) {
	to, ok := Approve(models.StatusPartiallyCompleted)
	assert.True(t, ok)
	assert.Equal(t, models.StatusCompleted, to)

	_, ok = Approve(models.StatusInProgress)
	assert.False(t, ok)
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, s := range []models.Status{models.StatusPending, models.StatusInProgress, models.StatusPaused, models.StatusPartiallyCompleted} {
		to, ok := Cancel(s)
		assert.True(t, ok, s)
		assert.Equal(t, models.StatusCancelled, to)
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, s := range []models.Status{models.StatusCompleted, models.StatusCancelled} {
		assert.False(t, Allowed(OpCancel, s))
		assert.False(t, Allowed(OpRelease, s))
		assert.False(t, Allowed(OpUpdateItem, s))
	}
}

func TestDeleteOnlyFromPending(t *testing.T) {
	assert.True(t, Delete(models.StatusPending))
	assert.False(t, Delete(models.StatusInProgress))
}
