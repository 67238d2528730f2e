package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// ConfirmedLine is one cart line frozen at confirmation time. Money travels
// as integer thebe so consumers never re-round.
type ConfirmedLine struct {
	LineID         uuid.UUID `json:"line_id"`
	DinerName      string    `json:"diner_name"`
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	ItemName       string    `json:"item_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	IsShared       bool      `json:"is_shared"`
	IsTakeaway     bool      `json:"is_takeaway"`
	Notes          string    `json:"notes,omitempty"`
	Customizations []string  `json:"customizations,omitempty"`
}

// OrderConfirmedEvent is emitted once per cart confirmation and carries the
// full set of lines sent to the kitchen.
type OrderConfirmedEvent struct {
	SessionID     uuid.UUID       `json:"session_id"`
	TableID       uuid.UUID       `json:"table_id"`
	TableNumber   int             `json:"table_number"`
	ConfirmedBy   string          `json:"confirmed_by"`
	Lines         []ConfirmedLine `json:"lines"`
	SubtotalCents int64           `json:"subtotal_cents"`
	VATCents      int64           `json:"vat_cents"`
	TotalCents    int64           `json:"total_cents"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}

// PaymentRecordedEvent is emitted when a payment settles or fails.
type PaymentRecordedEvent struct {
	PaymentID   uuid.UUID           `json:"payment_id"`
	SessionID   uuid.UUID           `json:"session_id"`
	DinerName   *string             `json:"diner_name,omitempty"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
	AmountCents int64               `json:"amount_cents"`
	Currency    enums.Currency      `json:"currency"`
	RecordedAt  time.Time           `json:"recorded_at"`
}

// SessionClosedEvent is emitted once when a dining session ends.
type SessionClosedEvent struct {
	SessionID   uuid.UUID `json:"session_id"`
	TableID     uuid.UUID `json:"table_id"`
	TableNumber int       `json:"table_number"`
	Reason      string    `json:"reason"`
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at"`
	DinerCount  int       `json:"diner_count"`
}
