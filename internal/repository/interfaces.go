package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pickcoordinator/internal/models"
)

// Repository defines the common interface implemented by every entity's
// repository.
type Repository[T any] interface {
	Create(entity *T) error
	GetByID(id uuid.UUID) (*T, error)
	Update(entity *T) error
	Delete(id uuid.UUID) error
	List(filters map[string]interface{}, orderBy string, limit, offset int) ([]T, error)
	Count(filters map[string]interface{}) (int64, error)
	Exists(id uuid.UUID) (bool, error)
	WithTransaction(fn func(*gorm.DB) error) error
	GetDB() *gorm.DB
}

// PrincipalRepository adds username lookups to the generic repository.
type PrincipalRepository interface {
	Repository[models.Principal]
	GetByUsername(ctx context.Context, username string) (*models.Principal, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	AnyAdminExists(ctx context.Context) (bool, error)
}

// RequestFilters narrows a List/Count call on RequestRepository.
type RequestFilters struct {
	Status    *models.Status
	Priority  *models.Priority
	CreatorID *uuid.UUID
}

// RequestRepository is the authoritative persistence layer for pick
// requests: the "request store" of the pick-request coordinator (§4.2).
type RequestRepository interface {
	// CreateWithItems inserts req and its items in one transaction,
	// rejecting duplicate UPCs in the payload before issuing any write.
	CreateWithItems(ctx context.Context, req *models.Request, items []models.Item) error

	// GetByName eagerly loads Items, Creator, and Claimant in one query.
	GetByName(ctx context.Context, name string) (*models.Request, error)

	// ExistsByName reports whether a request with this (already-normalized)
	// name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// List returns rows ordered urgent<normal<low, then created_at DESC.
	List(ctx context.Context, filters RequestFilters, offset, limit int) ([]models.Request, int64, error)

	// TryClaim performs the guarded conditional UPDATE behind `start`: it
	// sets claimant_id and status iff the row currently has no claimant and
	// is in expectedStatus. Returns false (no error) if no row matched.
	TryClaim(ctx context.Context, name string, expectedStatus, newStatus models.Status, claimantID uuid.UUID, setStartedAt bool, now time.Time) (bool, error)

	// TryTransition performs a guarded conditional UPDATE for every other
	// status-changing operation (pause, resume, release, cancel, submit,
	// approve): it applies updates iff the row is still in expectedStatus.
	// Returns false (no error) if no row matched, meaning the request moved
	// out from under the caller since it was loaded.
	TryTransition(ctx context.Context, name string, expectedStatus models.Status, updates map[string]interface{}) (bool, error)

	// Save persists req's own columns (not its items); used by the state
	// machine once a transition has already been validated.
	Save(ctx context.Context, req *models.Request) error

	// UpdateItem persists a single item's mutable fields (picked_qty,
	// shortage annotation); used by the item ledger.
	UpdateItem(ctx context.Context, item *models.Item) error

	// Delete removes req (and cascades to its items).
	Delete(ctx context.Context, id uuid.UUID) error

	// StaleClaims returns in_progress requests whose last_activity_at is
	// older than the given threshold, for the reaper.
	StaleClaims(ctx context.Context, olderThan time.Time) ([]models.Request, error)

	// AgedCompletions returns completed requests whose completed_at is
	// older than the given threshold, for the reaper.
	AgedCompletions(ctx context.Context, olderThan time.Time) ([]models.Request, error)

	WithTransaction(fn func(*gorm.DB) error) error
	GetDB() *gorm.DB
}

// RefreshTokenRepository persists refresh tokens for the auth collaborator.
type RefreshTokenRepository interface {
	Create(token *models.RefreshToken) error
	FindAll() ([]*models.RefreshToken, error)
	FindByPrincipalID(principalID uuid.UUID) ([]*models.RefreshToken, error)
	Update(token *models.RefreshToken) error
	Delete(id uuid.UUID) error
	DeleteByPrincipalID(principalID uuid.UUID) error
	DeleteExpired() (int64, error)
	GetDB() *gorm.DB
}
