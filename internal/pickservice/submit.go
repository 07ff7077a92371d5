package pickservice

import (
	"context"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickstate"
)

// SubmitResult pairs the finalized request with the completion log's path.
// LogErr is set when the transition succeeded but the log could not be
// written; it is reported alongside the success payload, never as the
// method's error.
type SubmitResult struct {
	Request *models.Request
	LogPath string
	LogErr  error
}

// SubmitRequest runs the submission resolver (§4.6): verify claim, classify
// items, validate shortages unless skipped, choose the final state, write
// the transition, then hand off to the completion log writer.
func (s *Service) SubmitRequest(ctx context.Context, actor *models.Principal, name string, skipShortageValidation bool) (*SubmitResult, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapSubmit, true) {
		return nil, forbidden("role does not permit submitting a pick")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.Allowed(pickstate.OpSubmit, req.Status) {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	if !actor.IsAdmin() && !claimantMatches(req, actor) {
		return nil, claimIdentityError(req)
	}

	hasShortage := false
	for i := range req.Items {
		if req.Items[i].HasShortage() {
			hasShortage = true
			break
		}
	}

	if hasShortage && !skipShortageValidation {
		for i := range req.Items {
			it := &req.Items[i]
			if !it.HasShortage() {
				continue
			}
			if it.ShortageReason == nil {
				return nil, apperr.Newf(apperr.CodeValidationError, "%s has a shortage but no reason was recorded", it.ProductName)
			}
			if *it.ShortageReason == models.ShortageOther && it.ShortageNotes == "" {
				return nil, apperr.Newf(apperr.CodeValidationError, "%s has reason 'other' but no shortage notes", it.ProductName)
			}
		}
	}

	newStatus, ok := pickstate.Submit(req.Status, hasShortage)
	if !ok {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":           newStatus,
		"completed_at":     now,
		"last_activity_at": now,
	}
	if newStatus == models.StatusCompleted {
		// claimant_id is cleared for a clean completion, but kept for
		// partially_completed so the submitter remains accountable until
		// approve or release.
		updates["claimant_id"] = nil
	}

	applied, err := s.requests.TryTransition(ctx, name, req.Status, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}

	final, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRequestSubmitted(string(newStatus))
	}

	result := &SubmitResult{Request: final}
	if s.logs != nil {
		result.LogPath, result.LogErr = s.logs.Write(final)
	}
	return result, nil
}
