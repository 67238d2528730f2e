package analytics

import (
	"encoding/json"
	"time"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// Envelope is the decoded transport frame handed to sinks. Payload stays raw
// so each sink decodes only the event versions it understands.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Version       int
	Payload       json.RawMessage
}
