package splits

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

// SplitDTO exposes the derived pricing record for a shared line. Amounts are
// rendered with two decimals at this boundary only.
type SplitDTO struct {
	ID            uuid.UUID `json:"id"`
	LineID        uuid.UUID `json:"line_id"`
	Participants  []string  `json:"participants"`
	SplitCount    int       `json:"split_count"`
	OriginalPrice string    `json:"original_price"`
	SplitPrice    string    `json:"split_price"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShareDTO is one diner's share of a shared line.
type ShareDTO struct {
	LineID    uuid.UUID `json:"line_id"`
	DinerName string    `json:"diner_name"`
	Share     string    `json:"share"`
}

// FromEntry maps a persisted split entry into a DTO.
func FromEntry(m *models.SplitEntry) *SplitDTO {
	if m == nil {
		return nil
	}
	return &SplitDTO{
		ID:            m.ID,
		LineID:        m.LineID,
		Participants:  m.Participants,
		SplitCount:    m.SplitCount,
		OriginalPrice: pricing.FormatAmount(m.OriginalPrice),
		SplitPrice:    pricing.FormatAmount(m.SplitPrice),
		UpdatedAt:     m.UpdatedAt,
	}
}
