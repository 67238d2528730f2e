package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/pricing"
)

// PaymentDTO is the API representation of one recorded payment.
type PaymentDTO struct {
	ID              uuid.UUID           `json:"id"`
	SessionID       uuid.UUID           `json:"session_id"`
	DinerName       *string             `json:"diner_name,omitempty"`
	Method          enums.PaymentMethod `json:"method"`
	Status          enums.PaymentStatus `json:"status"`
	AmountCents     int64               `json:"amount_cents"`
	Amount          string              `json:"amount"`
	Currency        enums.Currency      `json:"currency"`
	SquarePaymentID *string             `json:"square_payment_id,omitempty"`
	FailureReason   *string             `json:"failure_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// FromModel converts a payment row into its DTO.
func FromModel(m *models.Payment) *PaymentDTO {
	if m == nil {
		return nil
	}
	return &PaymentDTO{
		ID:              m.ID,
		SessionID:       m.SessionID,
		DinerName:       m.DinerName,
		Method:          m.Method,
		Status:          m.Status,
		AmountCents:     m.AmountCents,
		Amount:          pricing.FormatAmount(decimal.New(m.AmountCents, -2)),
		Currency:        m.Currency,
		SquarePaymentID: m.SquarePaymentID,
		FailureReason:   m.FailureReason,
		CreatedAt:       m.CreatedAt,
	}
}

// FromModels converts a slice of payment rows.
func FromModels(rows []models.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos
}
