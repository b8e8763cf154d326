// Package room owns the pre-game lifecycle: lobbies, seating, readiness,
// and the handoff that turns a full room into a running game.
package room

import (
	"sort"
	"sync"
	"time"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/game"
)

// GameType is the only game this server hosts.
const GameType = "coinche"

// RulesetVersion pins the auction and scoring rule choices rooms play
// under. Bump it when a rule decision changes.
const RulesetVersion = "coinche-2024.1"

// Visibility controls whether a room shows up in unfiltered listings.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Status is the room lifecycle phase.
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// SeatAssignment is one occupied seat.
type SeatAssignment struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`
	Ready       bool   `json:"ready"`
}

// Room is one lobby and, once started, the handle to its game. mu guards
// every field; ops go through the Manager.
type Room struct {
	mu         sync.Mutex
	id         string
	host       string
	visibility Visibility
	status     Status
	locked     bool
	seats      [belote.NumSeats]*SeatAssignment
	spectators map[string]string
	target     int
	timeout    time.Duration
	rev        uint64
	game       *game.Game
	createdAt  time.Time
	updatedAt  time.Time
}

// View is the public projection of a room.
type View struct {
	RoomID             string                           `json:"roomId"`
	GameType           string                           `json:"gameType"`
	HostPlayer         string                           `json:"hostPlayer"`
	Visibility         Visibility                       `json:"visibility"`
	RulesetVersion     string                           `json:"rulesetVersion"`
	Status             Status                           `json:"status"`
	Locked             bool                             `json:"locked"`
	Seats              [belote.NumSeats]*SeatAssignment `json:"seats"`
	Spectators         []string                         `json:"spectators"`
	TargetScore        int                              `json:"targetScore"`
	TurnTimeoutSeconds int                              `json:"turnTimeoutSeconds"`
	GameID             string                           `json:"gameId,omitempty"`
	Revision           uint64                           `json:"revision"`
	CreatedAt          time.Time                        `json:"createdAt"`
	UpdatedAt          time.Time                        `json:"updatedAt"`
}

// PlayerJoinedPayload announces a join on the room channel. Seat is nil
// for spectators.
type PlayerJoinedPayload struct {
	RoomID      string `json:"roomId"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Seat        *int   `json:"seat,omitempty"`
	Spectator   bool   `json:"spectator,omitempty"`
}

// PlayerLeftPayload announces a departure. Reason is "left" for voluntary
// leaves and "removed" for host kicks.
type PlayerLeftPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

// GameStartedPayload links a room to the game it launched.
type GameStartedPayload struct {
	RoomID    string   `json:"roomId"`
	GameID    string   `json:"gameId"`
	TurnOrder []string `json:"turnOrder"`
}

func (r *Room) viewLocked() View {
	var seats [belote.NumSeats]*SeatAssignment
	for i, s := range r.seats {
		if s != nil {
			dup := *s
			seats[i] = &dup
		}
	}

	spectators := make([]string, 0, len(r.spectators))
	for id := range r.spectators {
		spectators = append(spectators, id)
	}
	sort.Strings(spectators)

	view := View{
		RoomID:             r.id,
		GameType:           GameType,
		HostPlayer:         r.host,
		Visibility:         r.visibility,
		RulesetVersion:     RulesetVersion,
		Status:             r.status,
		Locked:             r.locked,
		Seats:              seats,
		Spectators:         spectators,
		TargetScore:        r.target,
		TurnTimeoutSeconds: int(r.timeout / time.Second),
		Revision:           r.rev,
		CreatedAt:          r.createdAt,
		UpdatedAt:          r.updatedAt,
	}
	if r.game != nil {
		view.GameID = r.game.ID()
	}
	return view
}

func (r *Room) seatOfLocked(playerID string) int {
	for i, s := range r.seats {
		if s != nil && s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) humanCountLocked() int {
	n := 0
	for _, s := range r.seats {
		if s != nil && !s.IsBot {
			n++
		}
	}
	return n
}

// nextHostLocked picks a replacement host: the first seated human.
func (r *Room) nextHostLocked() string {
	for _, s := range r.seats {
		if s != nil && !s.IsBot {
			return s.PlayerID
		}
	}
	return ""
}

func (r *Room) touchLocked(now time.Time) {
	r.rev++
	r.updatedAt = now
}
