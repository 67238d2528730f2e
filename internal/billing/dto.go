package billing

import (
	"github.com/google/uuid"
)

// BillLineDTO is one confirmed line as it appears on the table bill, always
// at its full original price.
type BillLineDTO struct {
	LineID     uuid.UUID `json:"line_id"`
	DinerName  string    `json:"diner_name"`
	ItemName   string    `json:"item_name,omitempty"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	LineTotal  string    `json:"line_total"`
	IsShared   bool      `json:"is_shared"`
	IsTakeaway bool      `json:"is_takeaway"`
}

// ShareLineDTO is one shared line as it appears on a diner's bill, priced at
// that diner's share.
type ShareLineDTO struct {
	LineID     uuid.UUID `json:"line_id"`
	ItemName   string    `json:"item_name,omitempty"`
	SplitCount int       `json:"split_count"`
	Share      string    `json:"share"`
}

// SessionBillDTO is the table-level bill over all confirmed lines.
type SessionBillDTO struct {
	SessionID     uuid.UUID     `json:"session_id"`
	Lines         []BillLineDTO `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	VAT           string        `json:"vat"`
	Total         string        `json:"total"`
	SubtotalCents int64         `json:"subtotal_cents"`
	VATCents      int64         `json:"vat_cents"`
	TotalCents    int64         `json:"total_cents"`
}

// DinerBillDTO is one diner's bill: personal lines at full price plus shares
// of the shared lines they participate in. PersonalTotal and SharedTotal are
// pre-VAT; Total includes VAT.
type DinerBillDTO struct {
	SessionID     uuid.UUID      `json:"session_id"`
	DinerName     string         `json:"diner_name"`
	PersonalLines []BillLineDTO  `json:"personal_lines"`
	SharedLines   []ShareLineDTO `json:"shared_lines"`
	PersonalTotal string         `json:"personal_total"`
	SharedTotal   string         `json:"shared_total"`
	Total         string         `json:"total"`
	TotalCents    int64          `json:"total_cents"`
}
