package analytics

import (
	"encoding/json"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/payloads"
	"github.com/pulanodus/tableserve-backend/pkg/outbox/registry"
)

// NewOrderEventsDecoder registers the payload versions the analytics worker
// understands.
func NewOrderEventsDecoder() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderConfirmed, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.OrderConfirmedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	decoders.Register(enums.EventPaymentRecorded, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.PaymentRecordedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	decoders.Register(enums.EventSessionClosed, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.SessionClosedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	return decoders
}
