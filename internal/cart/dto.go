package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/internal/splits"
	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

// CartLineDTO is the client-facing view of one line. Amounts are rendered
// with two decimals; clients replace their local copy with this on every
// mutation response instead of patching fields.
type CartLineDTO struct {
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
	Customizations []string         `json:"customizations,omitempty"`
	Status         enums.LineStatus `json:"status"`
	Version        int64            `json:"version"`
	ConfirmedAt    *time.Time       `json:"confirmed_at,omitempty"`
	ServedAt       *time.Time       `json:"served_at,omitempty"`
	Split          *splits.SplitDTO `json:"split,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ConfirmResultDTO is returned from cart confirmation with the frozen lines.
type ConfirmResultDTO struct {
	SessionID     uuid.UUID     `json:"session_id"`
	ConfirmedBy   string        `json:"confirmed_by"`
	ConfirmedAt   time.Time     `json:"confirmed_at"`
	Lines         []CartLineDTO `json:"lines"`
	SubtotalCents int64         `json:"subtotal_cents"`
	VATCents      int64         `json:"vat_cents"`
	TotalCents    int64         `json:"total_cents"`
}

// FromModel maps a persisted cart line into a DTO.
func FromModel(m *models.CartLine) *CartLineDTO {
	if m == nil {
		return nil
	}
	dto := &CartLineDTO{
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
		Customizations: m.Customizations,
		Status:         m.Status,
		Version:        m.Version,
		ConfirmedAt:    m.ConfirmedAt,
		ServedAt:       m.ServedAt,
		Split:          splits.FromEntry(m.Split),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.MenuItem != nil {
		dto.ItemName = m.MenuItem.Name
	}
	return dto
}

// FromModels maps a slice of cart lines into DTOs.
func FromModels(lines []models.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, 0, len(lines))
	for i := range lines {
		out = append(out, *FromModel(&lines[i]))
	}
	return out
}
