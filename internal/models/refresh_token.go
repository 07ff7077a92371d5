package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken lets a principal obtain a new access token without
// re-authenticating. Only its bcrypt hash is ever persisted.
// @Description Refresh token for maintaining a principal's session
type RefreshToken struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	PrincipalID uuid.UUID  `gorm:"type:uuid;not null;index" json:"principal_id"`
	TokenHash   string     `gorm:"type:text;not null" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`

	Principal Principal `gorm:"foreignKey:PrincipalID;constraint:OnDelete:CASCADE" json:"-"`
}

func (rt *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token's expiry has passed.
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
