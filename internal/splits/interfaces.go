package splits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// Repository defines persistence operations for split ledger entries and the
// cart-line reads and version bumps that keep them consistent.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.SplitEntry) (*models.SplitEntry, error)
	FindEntryByLine(ctx context.Context, lineID uuid.UUID) (*models.SplitEntry, error)
	UpdateEntry(ctx context.Context, entryID uuid.UUID, updates map[string]any) error
	FindLineByID(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error)
	UpdateLineCAS(ctx context.Context, lineID uuid.UUID, version int64, updates map[string]any) (bool, error)
}
