package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/types"
)

// MenuItem is a sellable catalog entry. Cart lines copy Price at add-time
// and never re-read it afterwards.
type MenuItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description"`
	Category    string           `gorm:"column:category;not null;index:idx_menu_items_category"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	Available   bool             `gorm:"column:available;not null;default:true"`
	Options     types.StringList `gorm:"column:options;type:jsonb;serializer:json"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
