package database

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/logger"
	"pickcoordinator/internal/models"
)

// defaultAdminPassword is used when DEFAULT_ADMIN_PASSWORD is unset, so a
// fresh deployment always has a usable admin account. Operators are
// expected to rotate it immediately; it is logged loudly for that reason.
const defaultAdminPassword = "changeme123"

// SeedDefaultAdmin creates the default admin principal if and only if no
// admin row exists yet, matching the idempotent-startup requirement: a
// second call against an already-seeded database is a no-op.
func SeedDefaultAdmin(db *gorm.DB, jwtSecret string) error {
	var count int64
	if err := db.Model(&models.Principal{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
		logger.Warn("DEFAULT_ADMIN_PASSWORD not set; seeding default admin with a well-known password, change it immediately")
	}

	authService := auth.NewService(jwtSecret, 0, 0, nil)
	hashed, err := authService.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := &models.Principal{
		Username:     "admin",
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		Active:       true,
	}

	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	logger.Info("Default admin principal created")
	return nil
}
