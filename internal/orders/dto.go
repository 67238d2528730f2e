package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

// OrderLineDTO is the staff view of one confirmed line.
type OrderLineDTO struct {
	ID             uuid.UUID        `json:"id"`
	SessionID      uuid.UUID        `json:"session_id"`
	DinerName      string           `json:"diner_name"`
	MenuItemID     uuid.UUID        `json:"menu_item_id"`
	ItemName       string           `json:"item_name,omitempty"`
	Quantity       int              `json:"quantity"`
	UnitPrice      string           `json:"unit_price"`
	LineTotal      string           `json:"line_total"`
	Notes          string           `json:"notes,omitempty"`
	IsShared       bool             `json:"is_shared"`
	IsTakeaway     bool             `json:"is_takeaway"`
	Customizations types.StringList `json:"customizations,omitempty"`
	Status         enums.LineStatus `json:"status"`
	Version        int64            `json:"version"`
	ConfirmedAt    *time.Time       `json:"confirmed_at,omitempty"`
	ServedAt       *time.Time       `json:"served_at,omitempty"`
}

// OpenLineRecord is the scan target for the kitchen queue join.
type OpenLineRecord struct {
	LineID         uuid.UUID        `gorm:"column:line_id"`
	SessionID      uuid.UUID        `gorm:"column:session_id"`
	TableNumber    int              `gorm:"column:table_number"`
	DinerName      string           `gorm:"column:diner_name"`
	ItemName       string           `gorm:"column:item_name"`
	Quantity       int              `gorm:"column:quantity"`
	Notes          string           `gorm:"column:notes"`
	IsTakeaway     bool             `gorm:"column:is_takeaway"`
	Customizations types.StringList `gorm:"column:customizations"`
	ConfirmedAt    *time.Time       `gorm:"column:confirmed_at"`
}

// OpenOrderLineDTO is one entry on the kitchen queue.
type OpenOrderLineDTO struct {
	LineID         uuid.UUID        `json:"line_id"`
	SessionID      uuid.UUID        `json:"session_id"`
	TableNumber    int              `json:"table_number"`
	DinerName      string           `json:"diner_name"`
	ItemName       string           `json:"item_name"`
	Quantity       int              `json:"quantity"`
	Notes          string           `json:"notes,omitempty"`
	IsTakeaway     bool             `json:"is_takeaway"`
	Customizations types.StringList `json:"customizations,omitempty"`
	ConfirmedAt    *time.Time       `json:"confirmed_at,omitempty"`
}

// FromModel converts a confirmed cart line into its staff view.
func FromModel(m *models.CartLine) *OrderLineDTO {
	if m == nil {
		return nil
	}
	dto := &OrderLineDTO{
		ID:             m.ID,
		SessionID:      m.SessionID,
		DinerName:      m.DinerName,
		MenuItemID:     m.MenuItemID,
		Quantity:       m.Quantity,
		UnitPrice:      pricing.FormatAmount(m.UnitPrice),
		LineTotal:      pricing.FormatAmount(pricing.LineTotal(m.UnitPrice, m.Quantity)),
		Notes:          m.Notes,
		IsShared:       m.IsShared,
		IsTakeaway:     m.IsTakeaway,
		Customizations: m.Customizations.Clone(),
		Status:         m.Status,
		Version:        m.Version,
		ConfirmedAt:    m.ConfirmedAt,
		ServedAt:       m.ServedAt,
	}
	if m.MenuItem != nil {
		dto.ItemName = m.MenuItem.Name
	}
	return dto
}

// FromModels converts a slice of confirmed lines.
func FromModels(lines []models.CartLine) []OrderLineDTO {
	dtos := make([]OrderLineDTO, 0, len(lines))
	for i := range lines {
		dtos = append(dtos, *FromModel(&lines[i]))
	}
	return dtos
}

// FromOpenLineRecord converts one kitchen queue row.
func FromOpenLineRecord(rec OpenLineRecord) OpenOrderLineDTO {
	return OpenOrderLineDTO{
		LineID:         rec.LineID,
		SessionID:      rec.SessionID,
		TableNumber:    rec.TableNumber,
		DinerName:      rec.DinerName,
		ItemName:       rec.ItemName,
		Quantity:       rec.Quantity,
		Notes:          rec.Notes,
		IsTakeaway:     rec.IsTakeaway,
		Customizations: rec.Customizations.Clone(),
		ConfirmedAt:    rec.ConfirmedAt,
	}
}

// FromOpenLineRecords converts the kitchen queue rows in order.
func FromOpenLineRecords(records []OpenLineRecord) []OpenOrderLineDTO {
	dtos := make([]OpenOrderLineDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, FromOpenLineRecord(rec))
	}
	return dtos
}
