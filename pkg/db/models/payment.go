package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// Payment records one settlement against a session, either a diner paying
// their own bill or the whole table settling at once (DinerName nil).
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID       uuid.UUID           `gorm:"column:session_id;type:uuid;not null;index:idx_payments_session"`
	DinerName       *string             `gorm:"column:diner_name"`
	Method          enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents     int64               `gorm:"column:amount_cents;not null"`
	Currency        enums.Currency      `gorm:"column:currency;not null;default:'BWP'"`
	SquarePaymentID *string             `gorm:"column:square_payment_id"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
