package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortageReason explains why an item fell short of its requested quantity.
// @Description Reason code recorded when an item cannot be fully picked
// @Example "out_of_stock"
type ShortageReason string

const (
	ShortageOutOfStock ShortageReason = "out_of_stock"
	ShortageDamaged    ShortageReason = "damaged"
	ShortageExpired    ShortageReason = "expired"
	ShortageNotFound   ShortageReason = "not_found"
	ShortageOther      ShortageReason = "other"
)

// IsValidShortageReason reports whether r is one of the defined reasons.
func IsValidShortageReason(r ShortageReason) bool {
	switch r {
	case ShortageOutOfStock, ShortageDamaged, ShortageExpired, ShortageNotFound, ShortageOther:
		return true
	}
	return false
}

// Item is one line of a request: a product identified by UPC, a requested
// quantity, and a running picked quantity. UPC is unique within a request,
// never globally.
// @Description A single product line within a pick request
type Item struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	RequestID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_item_request_upc,unique,priority:1" json:"request_id"`
	UPC            string          `gorm:"size:32;not null;index:idx_item_request_upc,unique,priority:2" json:"upc"`
	ProductName    string          `gorm:"size:200;not null" json:"product_name"`
	RequestedQty   int             `gorm:"not null" json:"requested_qty"`
	PickedQty      int             `gorm:"not null;default:0" json:"picked_qty"`
	ShortageReason *ShortageReason `gorm:"type:varchar(20)" json:"shortage_reason,omitempty"`
	ShortageNotes  string          `gorm:"size:255" json:"shortage_notes,omitempty"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Item) TableName() string {
	return "items"
}

// HasShortage reports whether the item fell short of its requested quantity.
func (i *Item) HasShortage() bool {
	return i.PickedQty < i.RequestedQty
}

// Remaining is the quantity still outstanding.
func (i *Item) Remaining() int {
	r := i.RequestedQty - i.PickedQty
	if r < 0 {
		return 0
	}
	return r
}

// ClearShortage removes any shortage annotation, used when picked_qty
// reaches requested_qty.
func (i *Item) ClearShortage() {
	i.ShortageReason = nil
	i.ShortageNotes = ""
}
