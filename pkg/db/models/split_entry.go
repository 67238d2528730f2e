package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/types"
)

// SplitEntry is the derived pricing record for a shared cart line, exactly
// one per line. OriginalPrice and SplitPrice are recomputed wholesale from
// the owning line on every write; they are never patched in place.
// SplitPrice keeps six decimal places so recombining share times count stays
// inside the cent tolerance.
type SplitEntry struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LineID        uuid.UUID        `gorm:"column:line_id;type:uuid;not null;uniqueIndex:uq_split_entries_line"`
	Participants  types.StringList `gorm:"column:participants;type:jsonb;serializer:json;not null"`
	SplitCount    int              `gorm:"column:split_count;not null"`
	OriginalPrice decimal.Decimal  `gorm:"column:original_price;type:numeric(14,4);not null"`
	SplitPrice    decimal.Decimal  `gorm:"column:split_price;type:numeric(18,6);not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
