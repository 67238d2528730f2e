package tables

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// TableDTO exposes table data in API responses. QRToken is populated only by
// the explicit token endpoints, never on list reads.
type TableDTO struct {
	ID        uuid.UUID `json:"id"`
	Number    int       `json:"number"`
	Label     string    `json:"label"`
	Seats     int       `json:"seats"`
	Active    bool      `json:"active"`
	QRToken   string    `json:"qr_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTableInput holds creation-time data for a new table.
type CreateTableInput struct {
	Number int
	Label  string
	Seats  int
}

// FromModel maps a persisted table into a DTO.
func FromModel(m *models.RestaurantTable) *TableDTO {
	if m == nil {
		return nil
	}
	return &TableDTO{
		ID:        m.ID,
		Number:    m.Number,
		Label:     m.Label,
		Seats:     m.Seats,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromModels maps a slice of tables.
func FromModels(items []models.RestaurantTable) []TableDTO {
	out := make([]TableDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
