package models

import (
	"gorm.io/gorm"
)

// AllModels returns every model struct, for migration purposes.
func AllModels() []interface{} {
	return []interface{}{
		&Principal{},
		&Request{},
		&Item{},
		&RefreshToken{},
	}
}

// AutoMigrate runs auto-migration for all models. Idempotent: safe to call
// on every startup.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
