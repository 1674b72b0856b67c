package outbox

import (
	"encoding/json"
	"time"
)

// Source identifies what produced the event: a shopper session or a background job.
type Source struct {
	SessionID string `json:"sessionId,omitempty"`
	Job       string `json:"job,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Source     *Source         `json:"source,omitempty"`
	Data       json.RawMessage `json:"data"`
}
