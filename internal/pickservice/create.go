package pickservice

import (
	"context"

	"github.com/google/uuid"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickname"
	"pickcoordinator/internal/pickstate"
	"pickcoordinator/internal/repository"
)

// NameAvailability is validate_name's result (§4.1/§6): Error is a single
// human-readable phrase when the raw name fails syntax, unset when it is
// syntactically valid (Available then reflects the store lookup).
type NameAvailability struct {
	Available  bool
	Normalized string
	Error      string
}

// ValidateName normalizes raw and reports whether it is syntactically valid
// and currently unused. A syntax failure short-circuits the store lookup.
func (s *Service) ValidateName(ctx context.Context, raw string) (NameAvailability, error) {
	normalized, err := pickname.Validate(raw)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok {
			return NameAvailability{}, err
		}
		return NameAvailability{Error: ae.Message}, nil
	}

	exists, err := s.requests.ExistsByName(ctx, normalized)
	if err != nil {
		return NameAvailability{}, err
	}
	return NameAvailability{Available: !exists, Normalized: normalized}, nil
}

// ItemInput is one line of a create payload.
type ItemInput struct {
	UPC         string
	ProductName string
	Quantity    int
}

// CreateInput is the create operation's payload.
type CreateInput struct {
	Name     string
	Priority models.Priority
	Notes    string
	Items    []ItemInput
}

// CreateRequest validates the name, checks create-capability, and inserts
// the request with its items in one store transaction. Duplicate UPCs
// within the payload are rejected before any row is written.
func (s *Service) CreateRequest(ctx context.Context, actor *models.Principal, in CreateInput) (*models.Request, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.CapCreate, true) {
		return nil, forbidden("role does not permit creating requests")
	}

	normalized, err := pickname.Validate(in.Name)
	if err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.CodeValidationError, "a request must have at least one item")
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	items := make([]models.Item, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 || it.Quantity > 9999 {
			return nil, apperr.Newf(apperr.CodeValidationError, "quantity for %s must be between 1 and 9999", it.UPC)
		}
		items = append(items, models.Item{
			UPC:          it.UPC,
			ProductName:  it.ProductName,
			RequestedQty: it.Quantity,
		})
	}

	now := s.now()
	req := &models.Request{
		Name:           normalized,
		Status:         models.StatusPending,
		Priority:       priority,
		Notes:          in.Notes,
		CreatorID:      actor.ID,
		LastActivityAt: &now,
	}

	if err := s.requests.CreateWithItems(ctx, req, items); err != nil {
		if err == repository.ErrDuplicateUPC {
			return nil, apperr.New(apperr.CodeValidationError, "duplicate upc in request payload")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordRequestCreated(string(priority))
	}
	return req, nil
}

// GetRequest fetches a request by name.
func (s *Service) GetRequest(ctx context.Context, name string) (*models.Request, error) {
	return s.requests.GetByName(ctx, name)
}

// ListInput narrows and paginates a list operation.
type ListInput struct {
	Status    *models.Status
	Priority  *models.Priority
	CreatorID *uuid.UUID
	Offset    int
	Limit     int
}

// ListRequests returns rows and the total count matching in's filters,
// ordered urgent<normal<low then created_at DESC (the store's default).
func (s *Service) ListRequests(ctx context.Context, in ListInput) ([]models.Request, int64, error) {
	return s.requests.List(ctx, repository.RequestFilters{
		Status:    in.Status,
		Priority:  in.Priority,
		CreatorID: in.CreatorID,
	}, in.Offset, in.Limit)
}

// DeleteRequest removes a pending request outright; anything further along
// must be cancelled instead of deleted.
func (s *Service) DeleteRequest(ctx context.Context, actor *models.Principal, name string) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	req, err := s.requests.GetByName(ctx, name)
	if err != nil {
		return err
	}

	isOwner := req.CreatorID == actor.ID
	if !auth.Can(actor.Role, auth.CapDelete, isOwner) {
		return forbidden("only the creator or an admin may delete a request")
	}
	if !pickstate.Delete(req.Status) {
		return invalidStatus(req.Status, models.StatusPending)
	}

	return s.requests.Delete(ctx, req.ID)
}
