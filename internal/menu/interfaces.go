package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// ListFilters narrows catalog reads.
type ListFilters struct {
	Category      *string
	AvailableOnly bool
}

// Repository defines persistence operations for the menu catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	List(ctx context.Context, filters ListFilters) ([]models.MenuItem, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
