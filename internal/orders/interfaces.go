package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// Repository defines the staff-facing persistence reads over confirmed cart
// lines. Confirmed lines are the orders; there is no separate order table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindLineByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	ListConfirmedBySession(ctx context.Context, sessionID uuid.UUID) ([]models.CartLine, error)
	ListOpenLines(ctx context.Context) ([]OpenLineRecord, error)
	MarkServedCAS(ctx context.Context, lineID uuid.UUID, version int64, servedAt time.Time) (bool, error)
}
