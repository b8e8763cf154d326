// Package events is the event fabric: the append-only per-game log and the
// fan-out dispatcher that delivers envelopes to subscribers in version
// order.
package events

import (
	"encoding/json"
	"time"
)

// Type names every event the server emits.
type Type string

const (
	TypeRoomUpdated       Type = "room.updated"
	TypeRoomPlayerJoined  Type = "room.player_joined"
	TypeRoomPlayerLeft    Type = "room.player_left"
	TypeRoomGameStarted   Type = "room.game_started"
	TypeRoundStarted      Type = "round.started"
	TypeHandDealt         Type = "hand.dealt"
	TypeBidPlaced         Type = "bid.placed"
	TypeBidPassed         Type = "bid.passed"
	TypeBidDoubled        Type = "bid.doubled"
	TypeBidRedoubled      Type = "bid.redoubled"
	TypeContractFinalized Type = "contract.finalized"
	TypeMoveAccepted      Type = "move.accepted"
	TypeMoveRejected      Type = "move.rejected"
	TypeHandUpdated       Type = "hand.updated"
	TypeTrickCompleted    Type = "trick.completed"
	TypeTurnChanged       Type = "turn.changed"
	TypeRedealRequired    Type = "redeal.required"
	TypeRoundCompleted    Type = "round.completed"
	TypeGameCompleted     Type = "game.completed"
	TypeGameCancelled     Type = "game.cancelled"
	TypeMoveInvalidated   Type = "move.invalidated"
	TypeSystemHeartbeat   Type = "system.heartbeat"
)

// Scope controls which subscribers may see an event. Public events reach
// every subscriber of the stream; private events reach only the subscriber
// registered for the seat identity.
type Scope string

// ScopePublic marks an event visible to every subscriber.
const ScopePublic Scope = "public"

// Private returns the scope delivered only to the given seat identity.
func Private(identity string) Scope {
	return Scope("private:" + identity)
}

// Envelope is the wire form of one event. Exactly one of GameID and RoomID
// names the stream the event belongs to.
type Envelope struct {
	EventID    string          `json:"eventId"`
	Type       Type            `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Source     string          `json:"source"`
	GameID     string          `json:"gameId,omitempty"`
	RoomID     string          `json:"roomId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Version    uint64          `json:"version"`

	// Scope is routing metadata, never serialized.
	Scope Scope `json:"-"`
}

// StreamID returns the stream the envelope belongs to: its game when set,
// otherwise its room.
func (e Envelope) StreamID() string {
	if e.GameID != "" {
		return e.GameID
	}
	return e.RoomID
}

// VisibleTo reports whether a subscriber holding the given seat identity
// may see the event.
func (e Envelope) VisibleTo(identity string) bool {
	return e.Scope == ScopePublic || e.Scope == Private(identity)
}

// MarshalPayload encodes an event payload. Payload types are our own
// structs, so a marshal failure degrades to an empty object rather than
// failing the emit path.
func MarshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
