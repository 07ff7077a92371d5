package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is a pick request's position in its lifecycle.
// @Description Lifecycle state of a pick request
// @Example "in_progress"
type Status string

const (
	StatusPending             Status = "pending"
	StatusInProgress          Status = "in_progress"
	StatusPaused              Status = "paused"
	StatusPartiallyCompleted  Status = "partially_completed"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

// IsTerminal reports whether s can never transition again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority orders requests for picking; urgent sorts first.
// @Description Relative urgency of a pick request
// @Example "normal"
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// PriorityRank returns the sort rank used by the request store's default
// ordering (lower sorts first): urgent < normal < low.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Request is a named, operator-created bundle of items to retrieve from the
// warehouse. Name is the natural key: immutable, case-folded to lowercase,
// globally unique.
// @Description A warehouse pick request and its lifecycle state
type Request struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name        string     `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Status      Status     `gorm:"type:varchar(24);not null;index" json:"status"`
	Priority    Priority   `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Notes       string     `gorm:"size:500" json:"notes,omitempty"`
	CreatorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"creator_id"`
	ClaimantID  *uuid.UUID `gorm:"type:uuid;index" json:"claimant_id,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`

	Items    []Item     `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Creator  *Principal `gorm:"foreignKey:CreatorID;constraint:OnDelete:RESTRICT" json:"creator,omitempty"`
	Claimant *Principal `gorm:"foreignKey:ClaimantID;constraint:OnDelete:SET NULL" json:"claimant,omitempty"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Request) TableName() string {
	return "requests"
}

// HasShortage reports whether any item has picked_qty < requested_qty.
func (r *Request) HasShortage() bool {
	for _, it := range r.Items {
		if it.HasShortage() {
			return true
		}
	}
	return false
}

// TotalRequested sums requested_qty across items.
func (r *Request) TotalRequested() int {
	total := 0
	for _, it := range r.Items {
		total += it.RequestedQty
	}
	return total
}

// TotalPicked sums picked_qty across items.
func (r *Request) TotalPicked() int {
	total := 0
	for _, it := range r.Items {
		total += it.PickedQty
	}
	return total
}

// CompletionRate is TotalPicked/TotalRequested as a percentage, 0 when
// there is nothing requested.
func (r *Request) CompletionRate() float64 {
	total := r.TotalRequested()
	if total == 0 {
		return 0
	}
	return float64(r.TotalPicked()) / float64(total) * 100
}
