package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) FindLineByID(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Split").
		Preload("MenuItem").
		Where("id = ?", lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindCartLinesByIdentity returns the cart-status lines sharing an identity
// hash. Several lines can share a hash, so callers verify options per field.
func (r *repository) FindCartLinesByIdentity(ctx context.Context, sessionID uuid.UUID, dinerName string, menuItemID uuid.UUID, optionsHash string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Split").
		Where("session_id = ? AND diner_name = ? AND menu_item_id = ? AND options_hash = ? AND status = ?",
			sessionID, dinerName, menuItemID, optionsHash, enums.LineStatusCart).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID uuid.UUID, statuses ...enums.LineStatus) ([]models.CartLine, error) {
	query := r.db.WithContext(ctx).
		Preload("Split").
		Preload("MenuItem").
		Where("session_id = ?", sessionID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var lines []models.CartLine
	if err := query.Order("created_at ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
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

// DeleteLineCAS removes a cart-status line under the same version guard as
// updates.
func (r *repository) DeleteLineCAS(ctx context.Context, lineID uuid.UUID, version int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ? AND status = ?", lineID, version, enums.LineStatusCart).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DeleteSplitByLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("line_id = ?", lineID).
		Delete(&models.SplitEntry{}).Error
}

// ClearCartTx deletes every cart-status line for the session together with
// the owned split entries. Confirmed lines are never touched. Returns the
// number of lines removed.
func (r *repository) ClearCartTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}

	err := tx.WithContext(ctx).Exec(
		`DELETE FROM split_entries WHERE line_id IN (
			SELECT id FROM cart_lines WHERE session_id = ? AND status = ?
		)`, sessionID, enums.LineStatusCart).Error
	if err != nil {
		return 0, err
	}

	result := tx.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, enums.LineStatusCart).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ConfirmLinesByID promotes the given cart-status lines to confirmed in one
// statement. The affected row count tells the caller whether the snapshot it
// selected is still intact.
func (r *repository) ConfirmLinesByID(ctx context.Context, sessionID uuid.UUID, lineIDs []uuid.UUID, confirmedAt time.Time) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("session_id = ? AND id IN ? AND status = ?", sessionID, lineIDs, enums.LineStatusCart).
		Updates(map[string]any{
			"status":       enums.LineStatusConfirmed,
			"confirmed_at": confirmedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
