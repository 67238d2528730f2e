package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
)

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Sink flattens order confirmations into per-line sales facts and streams
// them into BigQuery. Other event types are acknowledged without a write.
type Sink struct {
	client  tableInserter
	table   string
	decoder payloadDecoder
	logg    *logger.Logger
}

// NewSink builds a sales fact sink.
func NewSink(client tableInserter, table string, decoder payloadDecoder, logg *logger.Logger) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("payload decoder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Sink{
		client:  client,
		table:   strings.TrimSpace(table),
		decoder: decoder,
		logg:    logg,
	}, nil
}

// Handle ingests one decoded envelope.
func (s *Sink) Handle(ctx context.Context, envelope Envelope) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": envelope.EventType,
	})

	if envelope.EventType != enums.EventOrderConfirmed {
		s.logg.Info(logCtx, "event not handled by sales sink")
		return nil
	}

	decoded, err := s.decoder.Decode(envelope.EventType, envelope.Version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	event, ok := decoded.(*payloads.OrderConfirmedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", decoded, envelope.EventType)
	}

	rows := flattenOrderConfirmed(envelope.EventID, envelope.OccurredAt, *event)
	if len(rows) == 0 {
		s.logg.Warn(logCtx, "order confirmation carried no lines")
		return nil
	}

	batch := make([]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, row)
	}
	if err := s.client.InsertRows(ctx, s.table, batch); err != nil {
		return fmt.Errorf("insert sales facts: %w", err)
	}

	s.logg.Info(s.logg.WithField(logCtx, "rows", len(rows)), "sales facts ingested")
	return nil
}
