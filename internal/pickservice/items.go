package pickservice

import (
	"context"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickstate"
)

// QuantityUpdate is update_item's payload; exactly one of Absolute or
// Increment must be set.
type QuantityUpdate struct {
	Absolute  *int
	Increment *int
}

func findItem(req *models.Request, upc string) (*models.Item, bool) {
	for i := range req.Items {
		if req.Items[i].UPC == upc {
			return &req.Items[i], true
		}
	}
	return nil, false
}

func quantityExceeded(remaining int) error {
	return apperr.New(apperr.CodeQuantityExceeded, "picked quantity would exceed requested quantity").
		WithDetails(map[string]interface{}{"remaining": remaining})
}

// UpdateItemQuantity applies an absolute or incremental change to one
// item's picked_qty inside a request the acting claimant holds. Absolute
// writes never clamp silently; both modes fail QUANTITY_EXCEEDED with the
// pre-write remaining count when the result would exceed requested_qty.
func (s *Service) UpdateItemQuantity(ctx context.Context, actor *models.Principal, name, upc string, upd QuantityUpdate) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapUpdateItem, true) {
		return nil, forbidden("role does not permit updating item quantities")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.UpdateItem(req.Status) {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	if !actor.IsAdmin() && !claimantMatches(req, actor) {
		return nil, claimIdentityError(req)
	}

	item, ok := findItem(req, upc)
	if !ok {
		return nil, apperr.Newf(apperr.CodeValidationError, "no item with upc %s on this request", upc)
	}

	var newQty int
	switch {
	case upd.Absolute != nil && upd.Increment != nil:
		return nil, apperr.New(apperr.CodeValidationError, "absolute and increment are mutually exclusive")
	case upd.Absolute != nil:
		if *upd.Absolute < 0 {
			return nil, apperr.New(apperr.CodeValidationError, "absolute quantity must be non-negative")
		}
		newQty = *upd.Absolute
	case upd.Increment != nil:
		if *upd.Increment < 1 {
			return nil, apperr.New(apperr.CodeValidationError, "increment must be at least 1")
		}
		newQty = item.PickedQty + *upd.Increment
	default:
		return nil, apperr.New(apperr.CodeValidationError, "one of absolute or increment is required")
	}

	if newQty > item.RequestedQty {
		return nil, quantityExceeded(item.RequestedQty - item.PickedQty)
	}

	item.PickedQty = newQty
	if item.PickedQty == item.RequestedQty {
		item.ClearShortage()
	}
	if err := s.requests.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.requests.TryTransition(ctx, name, req.Status, map[string]interface{}{
		"last_activity_at": now,
	}); err != nil {
		return nil, err
	}

	return s.requests.GetByName(ctx, name)
}

// ScanItem is the scan-to-count convenience path (§4.5): for an item whose
// requested_qty is at or below the configured auto-mode threshold, a scan
// auto-increments picked_qty by 1 and is a silent no-op once the item is
// already at requested_qty. Above the threshold it reports autoMode=false
// without mutating anything, leaving the transport to surface a manual
// absolute update instead.
func (s *Service) ScanItem(ctx context.Context, actor *models.Principal, name, upc string) (req *models.Request, autoMode bool, err error) {
	current, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}

	item, ok := findItem(current, upc)
	if !ok {
		return nil, false, apperr.Newf(apperr.CodeValidationError, "no item with upc %s on this request", upc)
	}
	if item.RequestedQty > s.cfg.AutoModeThreshold {
		return current, false, nil
	}
	if item.PickedQty >= item.RequestedQty {
		return current, true, nil
	}

	one := 1
	updated, err := s.UpdateItemQuantity(ctx, actor, name, upc, QuantityUpdate{Increment: &one})
	return updated, true, err
}

// SetItemShortage annotates an item with a shortage reason, last-write-wins
// per (request, upc).
func (s *Service) SetItemShortage(ctx context.Context, actor *models.Principal, name, upc string, reason models.ShortageReason, notes string) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapSetItemShortage, true) {
		return nil, forbidden("role does not permit annotating shortages")
	}

	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !pickstate.SetShortage(req.Status) {
		return nil, invalidStatus(req.Status, models.StatusInProgress)
	}
	if !actor.IsAdmin() && !claimantMatches(req, actor) {
		return nil, claimIdentityError(req)
	}

	if !models.IsValidShortageReason(reason) {
		return nil, apperr.New(apperr.CodeValidationError, "invalid shortage reason")
	}
	if reason == models.ShortageOther && notes == "" {
		return nil, apperr.New(apperr.CodeValidationError, "shortage_notes is required when reason is other")
	}

	item, ok := findItem(req, upc)
	if !ok {
		return nil, apperr.Newf(apperr.CodeValidationError, "no item with upc %s on this request", upc)
	}

	item.ShortageReason = &reason
	item.ShortageNotes = notes
	if err := s.requests.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.requests.TryTransition(ctx, name, req.Status, map[string]interface{}{
		"last_activity_at": now,
	}); err != nil {
		return nil, err
	}

	return s.requests.GetByName(ctx, name)
}
