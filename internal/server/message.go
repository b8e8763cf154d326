package server

import (
	"encoding/json"
	"time"

	"github.com/ngoudry/coinche/internal/events"
	"github.com/ngoudry/coinche/internal/room"
)

// MessageType names a WebSocket message.
type MessageType string

const (
	// Client to server messages.
	MessageTypeHello            MessageType = "hello"
	MessageTypeCreateRoom       MessageType = "create_room"
	MessageTypeListRooms        MessageType = "list_rooms"
	MessageTypeGetRoom          MessageType = "get_room"
	MessageTypeJoinRoom         MessageType = "join_room"
	MessageTypeLeaveRoom        MessageType = "leave_room"
	MessageTypeRemoveSeat       MessageType = "remove_seat"
	MessageTypeToggleReady      MessageType = "toggle_ready"
	MessageTypeLockRoom         MessageType = "lock_room"
	MessageTypeUnlockRoom       MessageType = "unlock_room"
	MessageTypeStartGame        MessageType = "start_game"
	MessageTypeFillWithBots     MessageType = "fill_with_bots"
	MessageTypeGetState         MessageType = "get_state"
	MessageTypeGetTurn          MessageType = "get_turn"
	MessageTypeGetHand          MessageType = "get_hand"
	MessageTypeSubmitBid        MessageType = "submit_bid"
	MessageTypeSubmitPass       MessageType = "submit_pass"
	MessageTypeSubmitCoinche    MessageType = "submit_coinche"
	MessageTypeSubmitSurcoinche MessageType = "submit_surcoinche"
	MessageTypeSubmitPlay       MessageType = "submit_play"
	MessageTypeCancelGame       MessageType = "cancel_game"
	MessageTypeInvalidateMove   MessageType = "invalidate_move"
	MessageTypeListEvents       MessageType = "list_events"

	// Server to client messages.
	MessageTypeWelcome      MessageType = "welcome"
	MessageTypeRoomState    MessageType = "room_state"
	MessageTypeRoomList     MessageType = "room_list"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeTurnState    MessageType = "turn_state"
	MessageTypeHand         MessageType = "hand"
	MessageTypeMoveResult   MessageType = "move_result"
	MessageTypeMoveRejected MessageType = "move_rejected"
	MessageTypeEvent        MessageType = "event"
	MessageTypeEventList    MessageType = "event_list"
	MessageTypeError        MessageType = "error"
)

// Message is the wire envelope every frame travels in. RequestID is
// echoed on the direct reply so clients can match responses.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps a payload with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// Client to server payloads.

// HelloData binds the connection to a player identity.
type HelloData struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName,omitempty"`
}

type CreateRoomData struct {
	Visibility         string `json:"visibility,omitempty"`
	TargetScore        int    `json:"targetScore,omitempty"`
	TurnTimeoutSeconds int    `json:"turnTimeoutSeconds,omitempty"`
}

type ListRoomsData struct {
	GameType   string `json:"gameType,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// RoomRef addresses a room for get/leave/ready/lock/unlock/start/fill.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

type JoinRoomData struct {
	RoomID    string `json:"roomId"`
	Seat      *int   `json:"seat,omitempty"`
	Spectator bool   `json:"spectator,omitempty"`
}

type RemoveSeatData struct {
	RoomID string `json:"roomId"`
	Seat   int    `json:"seat"`
}

// GameRef addresses a game for reads.
type GameRef struct {
	GameID string `json:"gameId"`
}

// GetStateData fetches a snapshot. With SinceVersion set the reply is
// deferred until the game moves past that version.
type GetStateData struct {
	GameID       string  `json:"gameId"`
	SinceVersion *uint64 `json:"sinceVersion,omitempty"`
}

type SubmitBidData struct {
	GameID          string  `json:"gameId"`
	ClientActionID  string  `json:"clientActionId,omitempty"`
	ExpectedVersion *uint64 `json:"expectedVersion,omitempty"`
	Kind            string  `json:"kind"`
	Value           int     `json:"value"`
}

// SubmitActionData covers pass, coinche, and surcoinche.
type SubmitActionData struct {
	GameID          string  `json:"gameId"`
	ClientActionID  string  `json:"clientActionId,omitempty"`
	ExpectedVersion *uint64 `json:"expectedVersion,omitempty"`
}

type SubmitPlayData struct {
	GameID          string  `json:"gameId"`
	ClientActionID  string  `json:"clientActionId,omitempty"`
	ExpectedVersion *uint64 `json:"expectedVersion,omitempty"`
	Card            string  `json:"card"`
}

type CancelGameData struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason,omitempty"`
}

type InvalidateMoveData struct {
	GameID string `json:"gameId"`
	MoveID string `json:"moveId"`
}

type ListEventsData struct {
	GameID       string `json:"gameId"`
	AfterEventID string `json:"afterEventId,omitempty"`
}

// Server to client payloads.

type WelcomeData struct {
	PlayerID         string `json:"playerId"`
	HeartbeatSeconds int    `json:"heartbeatSeconds"`
}

type RoomListData struct {
	Rooms []room.View `json:"rooms"`
}

type EventListData struct {
	GameID string            `json:"gameId"`
	Events []events.Envelope `json:"events"`
}

// ErrorData maps the error taxonomy onto the wire. CurrentVersion rides
// along on version conflicts, Violations on illegal moves.
type ErrorData struct {
	Kind           string   `json:"kind"`
	Message        string   `json:"message"`
	CurrentVersion *uint64  `json:"currentVersion,omitempty"`
	Violations     []string `json:"violations,omitempty"`
}

// MoveRejectedData is relayed only to the submitting connection; the
// event log never records rejections.
type MoveRejectedData struct {
	GameID string `json:"gameId"`
	ErrorData
}
