package sessions

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

// NewRepository builds a sessions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.DiningSession) (*models.DiningSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error) {
	var session models.DiningSession
	err := r.db.WithContext(ctx).
		Preload("Diners", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindOpenByTable(ctx context.Context, tableID uuid.UUID) (*models.DiningSession, error) {
	var session models.DiningSession
	err := r.db.WithContext(ctx).
		Preload("Diners", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Where("table_id = ? AND status = ?", tableID, enums.SessionStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) AddDiner(ctx context.Context, diner *models.SessionDiner) error {
	return r.db.WithContext(ctx).Create(diner).Error
}

func (r *repository) ListDiners(ctx context.Context, sessionID uuid.UUID) ([]models.SessionDiner, error) {
	var diners []models.SessionDiner
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&diners).Error
	if err != nil {
		return nil, err
	}
	return diners, nil
}

func (r *repository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ? AND status = ?", sessionID, enums.SessionStatusOpen).
		Update("last_activity_at", at).Error
}

func (r *repository) TouchTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return r.WithTx(tx).Touch(ctx, sessionID, at)
}

// Close flips an open session to closed. The status guard makes the
// transition a compare-and-swap; false means another writer closed it first.
func (r *repository) Close(ctx context.Context, sessionID uuid.UUID, closedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ? AND status = ?", sessionID, enums.SessionStatusOpen).
		Updates(map[string]any{
			"status":    enums.SessionStatusClosed,
			"closed_at": closedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListIdleOpen(ctx context.Context, cutoff time.Time) ([]models.DiningSession, error) {
	var sessions []models.DiningSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_activity_at < ?", enums.SessionStatusOpen, cutoff).
		Order("last_activity_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
