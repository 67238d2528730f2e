package splits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a splits repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.SplitEntry) (*models.SplitEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) FindEntryByLine(ctx context.Context, lineID uuid.UUID) (*models.SplitEntry, error) {
	var entry models.SplitEntry
	err := r.db.WithContext(ctx).
		Where("line_id = ?", lineID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpdateEntry(ctx context.Context, entryID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.SplitEntry{}).
		Where("id = ?", entryID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindLineByID(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Split").
		Where("id = ?", lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLineCAS applies updates to a cart-status line only when the caller
// still holds the current version, bumping the version in the same
// statement. False means a concurrent writer won.
func (r *repository) UpdateLineCAS(ctx context.Context, lineID uuid.UUID, version int64, updates map[string]any) (bool, error) {
	assignments := map[string]any{"version": gorm.Expr("version + 1")}
	for column, value := range updates {
		assignments[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND version = ? AND status = ?", lineID, version, enums.LineStatusCart).
		Updates(assignments)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
