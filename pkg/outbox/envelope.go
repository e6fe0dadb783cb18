package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const envelopeVersion = 1

// ErrEmptyPayload is returned when an envelope carries no data.
var ErrEmptyPayload = errors.New("envelope has no data")

// ActorRef identifies who triggered the state change behind an event.
type ActorRef struct {
	UserID   uuid.UUID  `json:"userId"`
	DealerID *uuid.UUID `json:"dealerId,omitempty"`
	Role     string     `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and shipped
// verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope marshals data under a fresh event id.
func NewEnvelope(data any, actor *ActorRef, occurredAt time.Time) (PayloadEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, err
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return PayloadEnvelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: occurredAt.UTC(),
		Actor:      actor,
		Data:       raw,
	}, nil
}

// DecodeData unmarshals the envelope data into dst.
func (e PayloadEnvelope) DecodeData(dst any) error {
	trimmed := bytes.TrimSpace(e.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmptyPayload
	}
	return json.Unmarshal(trimmed, dst)
}
