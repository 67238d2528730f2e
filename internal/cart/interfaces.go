package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// Repository defines persistence operations for cart lines. Mutations of
// existing lines go through compare-and-swap variants keyed on the line
// version; unguarded updates do not exist on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	FindLineByID(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error)
	FindCartLinesByIdentity(ctx context.Context, sessionID uuid.UUID, dinerName string, menuItemID uuid.UUID, optionsHash string) ([]models.CartLine, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, statuses ...enums.LineStatus) ([]models.CartLine, error)
	UpdateLineCAS(ctx context.Context, lineID uuid.UUID, version int64, updates map[string]any) (bool, error)
	DeleteLineCAS(ctx context.Context, lineID uuid.UUID, version int64) (bool, error)
	DeleteSplitByLine(ctx context.Context, lineID uuid.UUID) error
	ClearCartTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	ConfirmLinesByID(ctx context.Context, sessionID uuid.UUID, lineIDs []uuid.UUID, confirmedAt time.Time) (int64, error)
}
