package analytics

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
)

// SalesFactRow is one confirmed cart line flattened for the sales facts
// table. Money stays in integer thebe.
type SalesFactRow struct {
	EventID            string
	OccurredAt         time.Time
	SessionID          string
	TableID            string
	TableNumber        int
	ConfirmedBy        string
	LineID             string
	LineIndex          int
	DinerName          string
	MenuItemID         string
	ItemName           string
	Quantity           int
	UnitPriceCents     int64
	LineTotalCents     int64
	IsShared           bool
	IsTakeaway         bool
	OrderSubtotalCents int64
	OrderVATCents      int64
	OrderTotalCents    int64

	insertID string
}

// Save implements bigquery.ValueSaver. The insert ID is the event ID plus the
// line index so replayed events dedupe on the BigQuery side.
func (r SalesFactRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":             r.EventID,
		"occurred_at":          r.OccurredAt,
		"session_id":           r.SessionID,
		"table_id":             r.TableID,
		"table_number":         r.TableNumber,
		"confirmed_by":         r.ConfirmedBy,
		"line_id":              r.LineID,
		"line_index":           r.LineIndex,
		"diner_name":           r.DinerName,
		"menu_item_id":         r.MenuItemID,
		"item_name":            r.ItemName,
		"quantity":             r.Quantity,
		"unit_price_cents":     r.UnitPriceCents,
		"line_total_cents":     r.LineTotalCents,
		"is_shared":            r.IsShared,
		"is_takeaway":          r.IsTakeaway,
		"order_subtotal_cents": r.OrderSubtotalCents,
		"order_vat_cents":      r.OrderVATCents,
		"order_total_cents":    r.OrderTotalCents,
	}, r.insertID, nil
}

func flattenOrderConfirmed(eventID string, occurredAt time.Time, event payloads.OrderConfirmedEvent) []SalesFactRow {
	rows := make([]SalesFactRow, 0, len(event.Lines))
	for idx, line := range event.Lines {
		rows = append(rows, SalesFactRow{
			EventID:            eventID,
			OccurredAt:         occurredAt.UTC(),
			SessionID:          event.SessionID.String(),
			TableID:            event.TableID.String(),
			TableNumber:        event.TableNumber,
			ConfirmedBy:        event.ConfirmedBy,
			LineID:             line.LineID.String(),
			LineIndex:          idx,
			DinerName:          line.DinerName,
			MenuItemID:         line.MenuItemID.String(),
			ItemName:           line.ItemName,
			Quantity:           line.Quantity,
			UnitPriceCents:     line.UnitPriceCents,
			LineTotalCents:     line.LineTotalCents,
			IsShared:           line.IsShared,
			IsTakeaway:         line.IsTakeaway,
			OrderSubtotalCents: event.SubtotalCents,
			OrderVATCents:      event.VATCents,
			OrderTotalCents:    event.TotalCents,
			insertID:           fmt.Sprintf("%s:%d", eventID, idx),
		})
	}
	return rows
}
