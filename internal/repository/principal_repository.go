package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pickcoordinator/internal/models"
)

type principalRepository struct {
	*BaseRepository[models.Principal]
}

// NewPrincipalRepository creates a new principal repository instance.
func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &principalRepository{BaseRepository: NewBaseRepository[models.Principal](db)}
}

// GetByUsername retrieves a principal by username, case-insensitively
// (usernames are already stored lowercased, but callers may pass raw input).
func (r *principalRepository) GetByUsername(ctx context.Context, username string) (*models.Principal, error) {
	var p models.Principal
	err := r.GetDB().WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ExistsByUsername reports whether a principal with this username exists.
func (r *principalRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.GetDB().WithContext(ctx).Model(&models.Principal{}).
		Where("username = ?", strings.ToLower(username)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AnyAdminExists reports whether at least one admin row exists, active or
// not — used by startup seeding (§5/§6: "A default admin is inserted at
// startup if and only if no admin row exists").
func (r *principalRepository) AnyAdminExists(ctx context.Context) (bool, error) {
	var count int64
	err := r.GetDB().WithContext(ctx).Model(&models.Principal{}).
		Where("role = ?", models.RoleAdmin).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
