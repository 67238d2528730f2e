package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindLineByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("id = ?", id).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListConfirmedBySession(ctx context.Context, sessionID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("session_id = ? AND status = ?", sessionID, enums.LineStatusConfirmed).
		Order("confirmed_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ListOpenLines returns the kitchen queue: confirmed, not yet served lines of
// open sessions, oldest confirmation first.
func (r *repository) ListOpenLines(ctx context.Context) ([]OpenLineRecord, error) {
	selectColumns := []string{
		"l.id AS line_id",
		"l.session_id",
		"t.number AS table_number",
		"l.diner_name",
		"m.name AS item_name",
		"l.quantity",
		"l.notes",
		"l.is_takeaway",
		"l.customizations",
		"l.confirmed_at",
	}

	var records []OpenLineRecord
	err := r.db.WithContext(ctx).
		Table("cart_lines l").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN dining_sessions s ON s.id = l.session_id").
		Joins("JOIN restaurant_tables t ON t.id = s.table_id").
		Joins("JOIN menu_items m ON m.id = l.menu_item_id").
		Where("l.status = ? AND l.served_at IS NULL", enums.LineStatusConfirmed).
		Where("s.status = ?", enums.SessionStatusOpen).
		Order("l.confirmed_at ASC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) MarkServedCAS(ctx context.Context, lineID uuid.UUID, version int64, servedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND version = ? AND status = ? AND served_at IS NULL",
			lineID, version, enums.LineStatusConfirmed).
		Updates(map[string]interface{}{
			"served_at": servedAt,
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
