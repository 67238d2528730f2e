package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// DecodeFunc turns a raw outbox payload into its typed event struct.
type DecodeFunc func(payload json.RawMessage) (interface{}, error)

type decoderID struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, payload version) pairs to decoders so a
// consumer can keep handling old payload shapes after the producer moves on.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	decoders map[decoderID]DecodeFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderID]DecodeFunc)}
}

// Register installs a decoder, replacing any previous registration for the
// same event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode DecodeFunc) {
	r.mtx.Lock()
	r.decoders[decoderID{eventType: eventType, version: version}] = decode
	r.mtx.Unlock()
}

// Decode dispatches the payload to the registered decoder.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	decode, ok := r.decoders[decoderID{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder for %s@v%d", eventType, version)
	}
	return decode(payload)
}
