package tables

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
)

// Repository defines persistence operations for physical tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, table *models.RestaurantTable) (*models.RestaurantTable, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error)
	List(ctx context.Context) ([]models.RestaurantTable, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
