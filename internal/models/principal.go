package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role determines what operations a principal may perform against the
// pick-request coordinator.
// @Description Role that determines a principal's operational capabilities
// @Example "picker"
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRequester Role = "requester"
	RolePicker    Role = "picker"
)

// IsValid reports whether r is one of the three defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRequester, RolePicker:
		return true
	}
	return false
}

// Principal is an authenticated actor: an admin, a requester, or a picker.
// Usernames are unique and stored case-folded to lowercase; a deactivated
// principal is retained (soft-delete) rather than destroyed so that
// historical requests keep a valid creator/claimant reference.
// @Description An authenticated user of the pick-request coordinator
type Principal struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=3,max=50"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role" validate:"required"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	CreatedRequests  []Request `gorm:"foreignKey:CreatorID" json:"-"`
	ClaimedRequests  []Request `gorm:"foreignKey:ClaimantID" json:"-"`
}

// BeforeCreate assigns a UUID and lowercases the username.
func (p *Principal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Username = normalizeUsername(p.Username)
	return nil
}

// BeforeUpdate keeps the username case-folded on every write.
func (p *Principal) BeforeUpdate(tx *gorm.DB) error {
	p.Username = normalizeUsername(p.Username)
	return nil
}

func normalizeUsername(u string) string {
	out := make([]rune, 0, len(u))
	for _, r := range u {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		out = append(out, r)
	}
	return string(out)
}

func (Principal) TableName() string {
	return "principals"
}

func (p *Principal) IsAdmin() bool     { return p.Role == RoleAdmin }
func (p *Principal) IsRequester() bool { return p.Role == RoleRequester }
func (p *Principal) IsPicker() bool    { return p.Role == RolePicker }
