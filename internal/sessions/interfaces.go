package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// Repository defines persistence operations for dining sessions and their
// diner registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.DiningSession) (*models.DiningSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
	FindOpenByTable(ctx context.Context, tableID uuid.UUID) (*models.DiningSession, error)
	AddDiner(ctx context.Context, diner *models.SessionDiner) error
	ListDiners(ctx context.Context, sessionID uuid.UUID) ([]models.SessionDiner, error)
	Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error
	TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
	Close(ctx context.Context, sessionID uuid.UUID, closedAt time.Time) (bool, error)
	ListIdleOpen(ctx context.Context, cutoff time.Time) ([]models.DiningSession, error)
}
