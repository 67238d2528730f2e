package menu

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

// MenuItemDTO exposes catalog entries in API responses. Price is rendered
// with two decimals; internal math keeps the full decimal value.
type MenuItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Available   bool      `json:"available"`
	Options     []string  `json:"options,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateMenuItemInput holds creation-time data for a new catalog entry.
type CreateMenuItemInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Available   *bool
	Options     []string
}

// UpdateMenuItemInput carries partial updates; nil fields stay untouched.
type UpdateMenuItemInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Available   *bool
	Options     []string
}

// FromModel maps a persisted menu item into a DTO.
func FromModel(m *models.MenuItem) *MenuItemDTO {
	if m == nil {
		return nil
	}
	return &MenuItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Price:       pricing.FormatAmount(m.Price),
		Available:   m.Available,
		Options:     m.Options,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromModels maps a slice of menu items.
func FromModels(items []models.MenuItem) []MenuItemDTO {
	out := make([]MenuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
