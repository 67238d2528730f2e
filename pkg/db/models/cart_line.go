package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

// CartLine is one pending or confirmed order row for one diner. UnitPrice is
// the menu price copied at add-time; it never tracks later menu edits.
// Version is the optimistic lock counter: every mutation is a
// compare-and-swap on (id, version).
type CartLine struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      uuid.UUID        `gorm:"column:session_id;type:uuid;not null;index:idx_cart_lines_session"`
	DinerName      string           `gorm:"column:diner_name;not null"`
	MenuItemID     uuid.UUID        `gorm:"column:menu_item_id;type:uuid;not null"`
	OptionsHash    string           `gorm:"column:options_hash;not null;index:idx_cart_lines_identity"`
	Quantity       int              `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal  `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Notes          string           `gorm:"column:notes;not null;default:''"`
	IsShared       bool             `gorm:"column:is_shared;not null;default:false"`
	IsTakeaway     bool             `gorm:"column:is_takeaway;not null;default:false"`
	Customizations types.StringList `gorm:"column:customizations;type:jsonb;serializer:json"`
	Status         enums.LineStatus `gorm:"column:status;type:line_status;not null;default:'cart'"`
	Version        int64            `gorm:"column:version;not null;default:0"`
	ConfirmedAt    *time.Time       `gorm:"column:confirmed_at"`
	ServedAt       *time.Time       `gorm:"column:served_at"`
	MenuItem       *MenuItem        `gorm:"foreignKey:MenuItemID;references:ID"`
	Split          *SplitEntry      `gorm:"foreignKey:LineID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
