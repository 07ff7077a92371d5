package pickservice

import (
	"context"
	"fmt"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickstate"
)

// StartPicking acquires the claim on a pending request via the guarded
// conditional UPDATE (§4.4): two concurrent callers racing the same pending
// request never both win.
func (s *Service) StartPicking(ctx context.Context, actor *models.Principal, name string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapStart, true) {
		return nil, forbidden("role does not permit starting a pick")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if req.ClaimantID != nil && *req.ClaimantID != actor.ID {
		// Someone else already holds the claim (including a racing start
		// that committed before this read): that is REQUEST_LOCKED.
		return nil, claimIdentityError(req)
	}
	if !pickstate.Allowed(pickstate.OpStart, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusPending)
	}

	now := s.now()
	ok, err := s.requests.TryClaim(ctx, name, models.StatusPending, models.StatusInProgress, actor.ID, true, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The guarded update matched no row: re-read to tell a lost race
		// (REQUEST_LOCKED) apart from a status that moved on meanwhile.
		fresh, rerr := s.requests.GetByName(ctx, name)
		if rerr != nil {
			return nil, rerr
		}
		if fresh.ClaimantID != nil {
			return nil, claimIdentityError(fresh)
		}
		return nil, invalidStatus(fresh.Status, models.StatusPending)
	}

	return s.requests.GetByName(ctx, name)
}

// PausePicking keeps the claim and moves in_progress -> paused.
func (s *Service) PausePicking(ctx context.Context, actor *models.Principal, name string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapPause, true) {
		return nil, forbidden("role does not permit pausing a pick")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.Allowed(pickstate.OpPause, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	if !actor.IsAdmin() && !claimantMatches(req, actor) {
		return nil, claimIdentityError(req)
	}

	now := s.now()
	ok, err := s.requests.TryTransition(ctx, name, models.StatusInProgress, map[string]interface{}{
		"status":           models.StatusPaused,
		"last_activity_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	return s.requests.GetByName(ctx, name)
}

// ResumePicking moves a request back to in_progress. From paused, the
// claimant is unchanged and only the same claimant (or an admin) may call
// it. From partially_completed, any picker (or admin) may resume, and the
// claimant is reassigned to the caller.
func (s *Service) ResumePicking(ctx context.Context, actor *models.Principal, name string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapResume, true) {
		return nil, forbidden("role does not permit resuming a pick")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.Allowed(pickstate.OpResume, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusPaused)
	}

	now := s.now()
	switch req.Status {
	case models.StatusPaused:
		if !actor.IsAdmin() && !claimantMatches(req, actor) {
			return nil, claimIdentityError(req)
		}
		ok, err := s.requests.TryTransition(ctx, name, models.StatusPaused, map[string]interface{}{
			"status":           models.StatusInProgress,
			"last_activity_at": now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidStatus(req.Status, models.StatusPaused)
		}

	case models.StatusPartiallyCompleted:
		ok, err := s.requests.TryTransition(ctx, name, models.StatusPartiallyCompleted, map[string]interface{}{
			"status":           models.StatusInProgress,
			"claimant_id":      actor.ID,
			"last_activity_at": now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidStatus(req.Status, models.StatusPartiallyCompleted)
		}
	}

	return s.requests.GetByName(ctx, name)
}

// ReleaseClaim clears the claim and returns the request to pending,
// preserving item progress and started_at.
func (s *Service) ReleaseClaim(ctx context.Context, actor *models.Principal, name string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapRelease, true) {
		return nil, forbidden("role does not permit releasing a claim")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.Allowed(pickstate.OpRelease, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	if !actor.IsAdmin() && !claimantMatches(req, actor) {
		return nil, claimIdentityError(req)
	}

	now := s.now()
	ok, err := s.requests.TryTransition(ctx, name, req.Status, map[string]interface{}{
		"status":           models.StatusPending,
		"claimant_id":      nil,
		"last_activity_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidStatus(req.Status, req.Status)
	}
	return s.requests.GetByName(ctx, name)
}

// CancelRequest moves any non-terminal state straight to cancelled.
func (s *Service) CancelRequest(ctx context.Context, actor *models.Principal, name string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	isOwner := req.CreatorID == actor.ID
	if !auth.Can(actor.Role, auth.CapCancel, isOwner) {
		return nil, forbidden("only the creator or an admin may cancel a request")
	}
	if !pickstate.Allowed(pickstate.OpCancel, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusPending)
	}

	now := s.now()
	ok, err := s.requests.TryTransition(ctx, name, req.Status, map[string]interface{}{
		"status":           models.StatusCancelled,
		"claimant_id":      nil,
		"last_activity_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidStatus(req.Status, req.Status)
	}
	return s.requests.GetByName(ctx, name)
}

// ApproveRequest finalizes a partially_completed request, clearing the
// claim and appending an audit note when approval notes were supplied.
func (s *Service) ApproveRequest(ctx context.Context, actor *models.Principal, name, notes string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	isOwner := req.CreatorID == actor.ID
	if !auth.Can(actor.Role, auth.CapApprove, isOwner) {
		return nil, forbidden("only the creator or an admin may approve a request")
	}
	if !pickstate.Allowed(pickstate.OpApprove, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusPartiallyCompleted)
	}

	newNotes := req.Notes
	if notes != "" {
		note := fmt.Sprintf("[APPROVED by %s]: %s", actor.Username, notes)
		if newNotes == "" {
			newNotes = note
		} else {
			newNotes = newNotes + "\n" + note
		}
	}

	now := s.now()
	ok, err := s.requests.TryTransition(ctx, name, models.StatusPartiallyCompleted, map[string]interface{}{
		"status":           models.StatusCompleted,
		"claimant_id":      nil,
		"notes":            newNotes,
		"last_activity_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidStatus(req.Status, models.StatusPartiallyCompleted)
	}
	return s.requests.GetByName(ctx, name)
}
