package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event: the diner name from the
// session, or a role for staff-initiated actions.
type ActorRef struct {
	Diner string `json:"diner,omitempty"`
	Role  string `json:"role,omitempty"`
}

// PayloadEnvelope is the wire shape stored in outbox_events.payload and
// delivered verbatim to consumers. Version tracks the shape of Data so
// consumers can keep decoding old events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
