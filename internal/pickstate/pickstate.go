// Package pickstate is the pick request state machine: a closed set of
// transitions with no knowledge of persistence, claims, or transport. It
// answers one question — "is operation X permitted from state Y, and what
// state does it produce" — and nothing else.
package pickstate

import "pickcoordinator/internal/models"

// Operation names every transition-triggering verb in the transition table.
type Operation string

const (
	OpCreate      Operation = "create"
	OpStart       Operation = "start"
	OpUpdateItem  Operation = "update_item"
	OpSetShortage Operation = "set_shortage"
	OpPause       Operation = "pause"
	OpResume      Operation = "resume"
	OpRelease     Operation = "release"
	OpSubmit      Operation = "submit"
	OpApprove     Operation = "approve"
	OpCancel      Operation = "cancel"
	OpDelete      Operation = "delete"
)

// table lists, per operation, the source states from which it may run. It
// does not encode the resulting state where that depends on more than the
// source state (submit); those operations have dedicated functions below.
var table = map[Operation]map[models.Status]bool{
	OpStart:       {models.StatusPending: true},
	OpUpdateItem:  {models.StatusInProgress: true},
	OpSetShortage: {models.StatusInProgress: true},
	OpPause:       {models.StatusInProgress: true},
	OpResume: {
		models.StatusPaused:             true,
		models.StatusPartiallyCompleted: true,
	},
	OpRelease: {
		models.StatusInProgress:         true,
		models.StatusPaused:             true,
		models.StatusPartiallyCompleted: true,
	},
	OpSubmit:  {models.StatusInProgress: true},
	OpApprove: {models.StatusPartiallyCompleted: true},
	OpCancel: {
		models.StatusPending:            true,
		models.StatusInProgress:         true,
		models.StatusPaused:             true,
		models.StatusPartiallyCompleted: true,
	},
	OpDelete: {models.StatusPending: true},
}

// Allowed reports whether op may run from the given state. A request in a
// terminal state never permits any operation.
func Allowed(op Operation, from models.Status) bool {
	if from.IsTerminal() {
		return false
	}
	sources, ok := table[op]
	if !ok {
		return false
	}
	return sources[from]
}

// Start computes the resulting state for `start`, or ok=false if the
// operation cannot run from `from`.
func Start(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpStart, from) {
		return "", false
	}
	return models.StatusInProgress, true
}

// Pause keeps the claimant and moves in_progress -> paused.
func Pause(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpPause, from) {
		return "", false
	}
	return models.StatusPaused, true
}

// Resume moves paused or partially_completed back to in_progress.
func Resume(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpResume, from) {
		return "", false
	}
	return models.StatusInProgress, true
}

// Release clears the claim and returns the request to pending, from any of
// in_progress, paused, or partially_completed.
func Release(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpRelease, from) {
		return "", false
	}
	return models.StatusPending, true
}

// Submit resolves to completed when there is no shortage, or
// partially_completed when there is. Only reachable from in_progress.
func Submit(from models.Status, hasShortage bool) (to models.Status, ok bool) {
	if !Allowed(OpSubmit, from) {
		return "", false
	}
	if hasShortage {
		return models.StatusPartiallyCompleted, true
	}
	return models.StatusCompleted, true
}

// Approve finalizes a partially_completed request.
func Approve(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpApprove, from) {
		return "", false
	}
	return models.StatusCompleted, true
}

// Cancel moves any non-terminal state straight to cancelled.
func Cancel(from models.Status) (to models.Status, ok bool) {
	if !Allowed(OpCancel, from) {
		return "", false
	}
	return models.StatusCancelled, true
}

// Delete reports whether a row in `from` may be removed outright (pending
// only; anything further along must be cancelled, not deleted).
func Delete(from models.Status) bool {
	return Allowed(OpDelete, from)
}

// UpdateItem and SetShortage do not change status; they only gate on it.
func UpdateItem(from models.Status) bool  { return Allowed(OpUpdateItem, from) }
func SetShortage(from models.Status) bool { return Allowed(OpSetShortage, from) }
