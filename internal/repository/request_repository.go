package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pickcoordinator/internal/apperr"
	"pickcoordinator/internal/models"
)

// ErrDuplicateUPC is returned by CreateWithItems when the payload itself
// (before any row is written) contains the same UPC twice.
var ErrDuplicateUPC = errors.New("duplicate upc in request payload")

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates the authoritative request store described in
// SPEC_FULL.md §4.2.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) GetDB() *gorm.DB { return r.db }

func (r *requestRepository) WithTransaction(fn func(*gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateWithItems rejects duplicate UPCs within the payload, then inserts
// the request and its items in one transaction. A unique index on
// (request_id, upc) backstops the in-payload check; a unique index on name
// backstops a racing duplicate create.
func (r *requestRepository) CreateWithItems(ctx context.Context, req *models.Request, items []models.Item) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.UPC]; dup {
			return ErrDuplicateUPC
		}
		seen[it.UPC] = struct{}{}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return mapRequestWriteError(err)
		}
		for i := range items {
			items[i].RequestID = req.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return mapItemWriteError(err)
			}
		}
		req.Items = items
		return nil
	})
}

func (r *requestRepository) GetByName(ctx context.Context, name string) (*models.Request, error) {
	var req models.Request
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Creator").
		Preload("Claimant").
		Where("name = ?", strings.ToLower(name)).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeRequestNotFound, "request not found")
		}
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("name = ?", strings.ToLower(name)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List orders urgent<normal<low, then created_at DESC, per §4.2/§6.
func (r *requestRepository) List(ctx context.Context, filters RequestFilters, offset, limit int) ([]models.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Request{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.CreatorID != nil {
		query = query.Where("creator_id = ?", *filters.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var rows []models.Request
	err := query.
		Preload("Items").Preload("Creator").Preload("Claimant").
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'normal' THEN 1 WHEN 'low' THEN 2 ELSE 1 END").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// TryClaim is the guarded conditional UPDATE behind `start` (§4.4,
// §5): it succeeds only if the row is currently unclaimed and in
// expectedStatus, so two concurrent callers racing the same pending request
// never both win.
func (r *requestRepository) TryClaim(ctx context.Context, name string, expectedStatus, newStatus models.Status, claimantID uuid.UUID, setStartedAt bool, now time.Time) (bool, error) {
	updates := map[string]interface{}{
		"claimant_id":      claimantID,
		"status":           newStatus,
		"last_activity_at": now,
	}
	if setStartedAt {
		// COALESCE: started_at is set the first time a request goes
		// in_progress and never cleared thereafter (§3 invariant).
		updates["started_at"] = gorm.Expr("COALESCE(started_at, ?)", now)
	}

	result := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("name = ? AND claimant_id IS NULL AND status = ?", strings.ToLower(name), expectedStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// TryTransition is the guarded conditional UPDATE behind every other
// status-changing operation: it applies updates iff the row is still in
// expectedStatus, so a transition validated against a stale in-memory copy
// never silently clobbers a row that moved on in the meantime.
func (r *requestRepository) TryTransition(ctx context.Context, name string, expectedStatus models.Status, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("name = ? AND status = ?", strings.ToLower(name), expectedStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *requestRepository) Save(ctx context.Context, req *models.Request) error {
	return r.db.WithContext(ctx).Model(&models.Request{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"status":           req.Status,
		"priority":         req.Priority,
		"notes":            req.Notes,
		"claimant_id":      req.ClaimantID,
		"started_at":       req.StartedAt,
		"completed_at":     req.CompletedAt,
		"last_activity_at": req.LastActivityAt,
	}).Error
}

func (r *requestRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"picked_qty":      item.PickedQty,
		"shortage_reason": item.ShortageReason,
		"shortage_notes":  item.ShortageNotes,
	}).Error
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Request{}).Error
}

func (r *requestRepository) StaleClaims(ctx context.Context, olderThan time.Time) ([]models.Request, error) {
	var rows []models.Request
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND last_activity_at < ?", models.StatusInProgress, olderThan).
		Find(&rows).Error
	return rows, err
}

func (r *requestRepository) AgedCompletions(ctx context.Context, olderThan time.Time) ([]models.Request, error) {
	var rows []models.Request
	err := r.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", models.StatusCompleted, olderThan).
		Find(&rows).Error
	return rows, err
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "duplicate key")
}

// mapRequestWriteError maps a failed request-row insert. The only unique
// index a request insert can hit is the one on name.
func mapRequestWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", apperr.New(apperr.CodeRequestNameExists, "request name already exists"), err)
	}
	return err
}

// mapItemWriteError maps a failed item-row insert. The only unique index an
// item insert can hit is the one on (request_id, upc) — distinct from a
// request-name collision, even though both surface as the same underlying
// driver error shape.
func mapItemWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", apperr.New(apperr.CodeDuplicateUPC, "duplicate upc in request"), err)
	}
	return err
}
