package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
)

// GameEvent is the wire envelope for every outbound event.
type GameEvent struct {
	ID        string          `json:"id"`
	Pin       string          `json:"pin"`
	Type      events.Type     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewGameEvent wraps a payload in the envelope. A payload that fails to
// marshal produces an envelope with empty data rather than a dropped event.
func NewGameEvent(pin string, eventType events.Type, payload any) *GameEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("pin", pin).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		data = []byte("{}")
	}
	return &GameEvent{
		ID:        uuid.New().String(),
		Pin:       pin,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
