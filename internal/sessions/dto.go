package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// SessionDTO exposes a dining session with its diner registry.
type SessionDTO struct {
	ID             uuid.UUID           `json:"id"`
	TableID        uuid.UUID           `json:"table_id"`
	TableNumber    int                 `json:"table_number,omitempty"`
	Status         enums.SessionStatus `json:"status"`
	Diners         []DinerDTO          `json:"diners"`
	LastActivityAt time.Time           `json:"last_activity_at"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// DinerDTO is one registered diner name within a session.
type DinerDTO struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// FromModel maps a persisted session into a DTO.
func FromModel(m *models.DiningSession) *SessionDTO {
	if m == nil {
		return nil
	}
	diners := make([]DinerDTO, 0, len(m.Diners))
	for _, diner := range m.Diners {
		diners = append(diners, DinerDTO{Name: diner.Name, JoinedAt: diner.JoinedAt})
	}
	return &SessionDTO{
		ID:             m.ID,
		TableID:        m.TableID,
		Status:         m.Status,
		Diners:         diners,
		LastActivityAt: m.LastActivityAt,
		ClosedAt:       m.ClosedAt,
		CreatedAt:      m.CreatedAt,
	}
}
